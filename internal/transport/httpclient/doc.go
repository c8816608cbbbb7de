// Package httpclient is the outbound HTTP client used to talk to the stock
// data provider.
//
// Requests are plain GETs with query parameters encoded in sorted order. The
// client never retries; a failed request, a non-2xx status or a truncated body
// is reported as a *TransportError whose URL has the api_key masked. Download
// streams large payloads such as zipped symbol catalogs into temp files owned
// by a files.Manager.
package httpclient
