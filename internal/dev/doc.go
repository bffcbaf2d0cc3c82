// Package dev implements the development-mode tooling: a polling file
// watcher over the pages and components directories, a WebSocket hot
// reload channel, and a Reloader that ties the two together by
// rescanning the catalog, reloading the script pool and recompiling
// the route table when files change.
//
// Nothing in this package runs in production mode.
package dev
