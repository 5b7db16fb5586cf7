// Package connectors holds integrations with external document services.
// The google subpackage provides OAuth, rate limiting and error mapping for
// Google APIs, and google/drive stores quill's blobs in a Drive folder tree.
package connectors
