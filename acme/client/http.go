package client

import (
	"context"
	"net/http"

	"github.com/cpu/acmefetch/net"
)

func (c *Client) handleRequest(req *http.Request) (*net.NetResponse, error) {
	resp, err := c.net.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetURL(ctx context.Context, url string) (*net.NetResponse, error) {
	req, err := c.net.GetRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	return c.handleRequest(req)
}

func (c *Client) PostURL(ctx context.Context, url string, body []byte) (*net.NetResponse, error) {
	req, err := c.net.PostRequest(ctx, url, body)
	if err != nil {
		return nil, err
	}
	return c.handleRequest(req)
}

// PostAsGetURL performs a POST-as-GET request to the given URL: a signed JWS
// with an empty payload.
//
// See https://tools.ietf.org/html/rfc8555#section-6.3
func (c *Client) PostAsGetURL(ctx context.Context, url string) (*net.NetResponse, error) {
	signResult, err := c.Sign(url, []byte(""), nil)
	if err != nil {
		return nil, err
	}
	return c.PostURL(ctx, url, signResult.SerializedJWS)
}

// fetchURL fetches the given URL with either a GET or POST-as-GET request
// depending on the client's PostAsGet setting.
func (c *Client) fetchURL(ctx context.Context, url string) (*net.NetResponse, error) {
	if c.PostAsGet {
		return c.PostAsGetURL(ctx, url)
	}
	return c.GetURL(ctx, url)
}
