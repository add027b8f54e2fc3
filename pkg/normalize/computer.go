package normalize

import (
	"strings"

	"github.com/Honestpuck/jss-tools/pkg/record"
	"golang.org/x/text/unicode/norm"
)

// DefaultIgnoredApps are the applications macOS ships with.
var DefaultIgnoredApps = []string{
	"Activity Monitor",
	"AirPort Utility",
	"App Store",
	"Audio MIDI Setup",
	"Automator",
	"Boot Camp Assistant",
	"Bluetooth File Exchange",
	"Calculator",
	"Calendar",
	"Chess",
	"ColorSync Utility",
	"Console",
	"Contacts",
	"Dashboard",
	"Dictionary",
	"Digital Color Meter",
	"Disk Utility",
	"DVD Player",
	"FaceTime",
	"Font Book",
	"Grab",
	"Grapher",
	"iBooks",
	"Image Capture",
	"iTunes",
	"Keychain Access",
	"Launchpad",
	"Mail",
	"Maps",
	"Messages",
	"Migration Assistant",
	"Mission Control",
	"Notes",
	"Photo Booth",
	"Photos",
	"Preview",
	"QuickTime Player",
	"Reminders",
	"Safari",
	"Script Editor",
	"Siri",
	"Stickies",
	"System Information",
	"System Preferences",
	"Terminal",
	"TextEdit",
	"Time Machine",
	"VoiceOver Utility",
}

// Applications maps installed application names to their versions. Names
// lose everything from the first "." (so "Self Service.app" becomes
// "Self Service") and are NFC normalized, since inventory reports them in
// decomposed form. A nil ignore list means DefaultIgnoredApps.
func Applications(rec *record.Record, ignore []string) map[string]string {
	if ignore == nil {
		ignore = DefaultIgnoredApps
	}
	skip := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		skip[norm.NFC.String(name)] = true
	}

	out := make(map[string]string)
	if rec == nil {
		return out
	}
	for _, app := range rec.FindAll("software/applications/application") {
		name, _ := app.FindText("name")
		name, _, _ = strings.Cut(name, ".")
		name = norm.NFC.String(name)
		if name == "" || skip[name] {
			continue
		}
		version, _ := app.FindText("version")
		out[name] = version
	}
	return out
}

// Groups returns the names of the computer groups rec belongs to.
func Groups(rec *record.Record) []string {
	out := []string{}
	if rec == nil {
		return out
	}
	memberships := rec.Find("groups_accounts/computer_group_memberships")
	if memberships == nil {
		return out
	}
	for _, g := range memberships.Children() {
		out = append(out, g.Text())
	}
	return out
}
