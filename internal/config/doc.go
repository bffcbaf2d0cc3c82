// Package config loads and validates noventa.json.
//
// The configuration covers the directories the engine scans (pages and
// components), the HTTP server address, the script runtime pool size,
// load-shedding tuning, uploads and static file serving. All relative
// paths resolve against the directory holding the config file, so the
// server can be started from anywhere inside the project.
package config
