// Package httputil provides the JSON response envelope shared by every
// public endpoint. Validation failures use categorical error codes; internal
// failures log the real error and return a generic message.
package httputil
