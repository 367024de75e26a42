// Package download implements the sequential batch pipeline built on top of
// yt-dlp (via github.com/lrstanley/go-ytdlp). It walks collected records in
// order, skips items whose id already appears in a file in the save
// directory, derives output filenames, relays transfer progress as events,
// and paces consecutive downloads to stay under remote rate limits.
package download
