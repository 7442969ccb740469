// Package api defines the request and response messages of the Dangi RPC
// services. Messages travel as JSON; field names follow the camelCase wire
// shape used by the web client.
package api
