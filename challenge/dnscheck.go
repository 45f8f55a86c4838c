package challenge

import (
	"fmt"

	"github.com/miekg/dns"
)

// VerifyTXT queries the DNS server at resolverAddr for TXT records at the
// given name and checks that one of them carries the expected value. It is
// used to confirm a dns-01 response is actually resolvable before the ACME
// server is asked to validate it.
func VerifyTXT(resolverAddr string, name string, expected string) error {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeTXT)

	c := new(dns.Client)
	in, _, err := c.Exchange(m, resolverAddr)
	if err != nil {
		return fmt.Errorf("TXT query for %q to %q failed: %s", name, resolverAddr, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return fmt.Errorf("TXT query for %q to %q returned rcode %s",
			name, resolverAddr, dns.RcodeToString[in.Rcode])
	}

	for _, rr := range in.Answer {
		txt, ok := rr.(*dns.TXT)
		if !ok {
			continue
		}
		for _, value := range txt.Txt {
			if value == expected {
				return nil
			}
		}
	}

	return fmt.Errorf("no TXT record for %q matched the expected challenge response", name)
}
