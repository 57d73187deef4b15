package customHttpClient

import (
	"net/http"

	"github.com/ibu-sdp/rag-api/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// PooledClient is shared by the embedding and LLM providers so repeated
// calls against the same host reuse connections instead of re-dialing.
func PooledClient() *http.Client {
	return &http.Client{Transport: customTransport}
}
