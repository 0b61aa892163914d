package render

import "errors"

var (
	// ErrPageMissing is returned when the page to render does not exist.
	ErrPageMissing = errors.New("page does not exist")

	// ErrInvalidProxyAddress is returned when the proxy address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrUnexpectedStatus is returned when the API answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status from API")

	// ErrUnsupportedContentModel is returned for pages the local renderer
	// cannot convert.
	ErrUnsupportedContentModel = errors.New("unsupported content model")
)
