package resources

// The Certificate resource represents an issued certificate: the leaf for
// the requested identifiers plus the issuing chain. It is created
// server-side when a signing request is accepted and is immutable once
// downloaded.
type Certificate struct {
	// The server-assigned ID (a URL) the certificate can be downloaded from.
	ID string
	// The DER encoding of the issued leaf certificate. Empty until the
	// certificate has been downloaded.
	Leaf []byte
	// The DER encodings of the issuing chain, in leaf-to-root order,
	// excluding the leaf itself.
	Chain [][]byte
}

// String returns the Certificate's ID URL.
func (c Certificate) String() string {
	return c.ID
}
