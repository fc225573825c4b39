// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small file and text helpers shared by the console
// host packages.
//
// # Files
//
// AtomicWriteFile replaces a file through a synced temp file and a rename, so
// readers see either the old or the new content:
//
//	err := util.AtomicWriteFile(path, data, 0600)
//
// # Text
//
// WrapWidth splits a message into terminal lines by display width, counting
// wide runes as two columns:
//
//	for _, line := range util.WrapWidth(msg, 80) {
//	    fmt.Println(line)
//	}
package util
