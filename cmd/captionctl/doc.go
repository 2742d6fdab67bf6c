// Command captionctl is the operator CLI for the captioning service: it
// applies migrations, re-runs enrichment for chosen uploads and prints the
// gallery as the web page would show it.
package main
