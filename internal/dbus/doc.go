// Package dbus exposes a soundboard on the session bus so status bars and
// scripts can drive the widgets hosted by the daemon.
//
// Object path /io/github/jmylchreest/LocalSoundboard, interface
// io.github.jmylchreest.LocalSoundboard:
//
//	Status() -> s                   JSON array of widget snapshots
//	Select(i widget, s path)        empty path clears the selection
//	SelectTrack(i widget, i track)  1-based catalog position, 0 clears
//	Toggle(i widget)
//	SetVolume(i widget, d volume)
//	StopAll()
//	Refresh()
//
//	signal StateChanged(i widget, s state, s selected, b playing, s error)
package dbus
