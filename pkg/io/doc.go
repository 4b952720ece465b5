// Package io reads template sources and writes generated files.
//
// # Reading
//
// [ReadTemplate] and [ReadText] return template text with a leading UTF-8
// byte order mark removed, so a BOM never ends up in the middle of a
// specialized file or shifts the first line's markers.
//
// # Writing
//
// [WriteFile] is change-aware: when the destination already holds exactly
// the new content it is left untouched, which keeps modification times
// stable for build tools watching the output directory. New content is
// written to a temporary file in the destination directory and renamed into
// place, so readers never observe a partially written file.
//
// [WriteJSON] and [ExportJSON] encode run reports as indented JSON.
package io
