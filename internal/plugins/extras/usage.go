package extras

import (
	"io"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"

	"github.com/dshills/playercore/internal/plugin"
)

// UsageStats counts how many times the player has started and keeps a
// per-install identifier. It is built through its zero value.
type UsageStats struct {
	plugin.Base

	runs      int
	installID string
}

// Restore counts this run. The first run generates the install id.
func (u *UsageStats) Restore(r io.Reader) error {
	u.runs = 0
	u.installID = ""

	doc, ok, err := readBlob(r)
	if err != nil {
		return err
	}
	if ok {
		u.runs = int(doc.Get("runs").Int())
		u.installID = doc.Get("install_id").String()
	}
	if _, err := uuid.Parse(u.installID); err != nil {
		u.installID = uuid.NewString()
	}

	u.runs++
	if h := u.Host(); h != nil {
		h.Logger().Debug("usage", "runs", u.runs, "install_id", u.installID)
	}
	return nil
}

// Persist writes the run count and install id.
func (u *UsageStats) Persist(w io.Writer) error {
	blob, err := sjson.SetBytes([]byte(`{}`), "runs", u.runs)
	if err != nil {
		return err
	}
	if blob, err = sjson.SetBytes(blob, "install_id", u.installID); err != nil {
		return err
	}
	_, err = w.Write(blob)
	return err
}

// Runs returns the number of runs including the current one.
func (u *UsageStats) Runs() int {
	return u.runs
}

// InstallID returns the per-install identifier.
func (u *UsageStats) InstallID() string {
	return u.installID
}
