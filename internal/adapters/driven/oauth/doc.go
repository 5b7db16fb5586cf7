// Package oauth persists the Google Drive OAuth token on disk.
package oauth
