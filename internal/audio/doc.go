// Package audio plays vault audio files through the system speaker.
// It uses the beep library to decode WAV, OGG, MP3 and FLAC files into
// cached buffers and mixes one stream per widget output with live volume control.
package audio
