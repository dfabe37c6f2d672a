// Package watch feeds files from the local filesystem into the importer.
//
// Files collects import requests for paths and directory trees.
// Watcher imports files as they are created or written in a directory
// tree, using fsnotify.
package watch
