// Package http implements the HTTP request handlers of the stockstats API.
// Handlers are a thin layer between the transport and the stock service:
// they parse query parameters, call the service and render the result.
//
// # Endpoints
//
//	GET /api/v1/health              service and provider configuration status
//	GET /api/v1/health/live         liveness probe
//	GET /api/v1/version             build information
//	GET /api/v1/symbols             the provider's symbol catalog
//	GET /api/v1/stats/{kind}        one statistic for a set of symbols
//	GET /metrics                    Prometheus exposition
//
// The stats endpoints take start and end months (YYYY-MM), a comma-separated
// symbols list and an optional adjusted flag:
//
//	GET /api/v1/stats/busy-days?start=2017-01&end=2017-06&symbols=COF,GOOGL
//
// # Error Handling
//
// All errors are rendered as RFC 7807 Problem Details by the shared
// errors.ErrorHandler. Provider failures map to 502, invalid input to 400,
// empty series to 422 and expired request deadlines to 504.
package http
