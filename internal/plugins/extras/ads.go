package extras

import (
	"io"
	"math/rand/v2"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/playercore/internal/playback"
	"github.com/dshills/playercore/internal/plugin"
	"github.com/dshills/playercore/internal/plugins/settings"
)

// Ads defaults.
const (
	AdsPeriod   = 2
	AdsCapacity = 2
)

// DefaultAdTexts are the ads shown when no texts are configured.
var DefaultAdTexts = []string{
	"Boka the legend and his grandson, the pop star Zhoka",
	"Don't forget to air the room...",
	"Buy money!",
	"Told my husband about his belly. His answer stunned me...",
}

// Ads shows an ad every period track changes and keeps the last capacity
// ads, evicting the oldest first. Pausing and resuming do not count.
//
// Settings: period, capacity, texts, seed.
type Ads struct {
	plugin.Base

	period   int
	capacity int
	texts    []string
	rng      *rand.Rand

	runCount int
	ads      []string
}

// NewAds creates the plugin.
func NewAds(plugin.Host) *Ads {
	return &Ads{}
}

// Restore reads the settings, then the run count and ad queue.
func (a *Ads) Restore(r io.Reader) error {
	s := a.Host().Settings(a.ID())
	a.period = max(1, settings.Int(s, "period", AdsPeriod))
	a.capacity = max(1, settings.Int(s, "capacity", AdsCapacity))
	a.texts = settings.Strings(s, "texts")
	if len(a.texts) == 0 {
		a.texts = DefaultAdTexts
	}
	a.rng = settings.Rand(s)

	a.runCount = 0
	a.ads = nil

	doc, ok, err := readBlob(r)
	if err != nil || !ok {
		return err
	}
	a.runCount = int(doc.Get("run_count").Int())
	doc.Get("ads").ForEach(func(_, v gjson.Result) bool {
		a.ads = append(a.ads, v.String())
		return true
	})
	return nil
}

// Persist writes the run count and ad queue.
func (a *Ads) Persist(w io.Writer) error {
	blob, err := sjson.SetBytes([]byte(`{}`), "run_count", a.runCount)
	if err != nil {
		return err
	}
	queue := a.ads
	if queue == nil {
		queue = []string{}
	}
	if blob, err = sjson.SetBytes(blob, "ads", queue); err != nil {
		return err
	}
	_, err = w.Write(blob)
	return err
}

// OnPlaybackStateChange counts track changes and shows an ad every period.
func (a *Ads) OnPlaybackStateChange(old, new playback.State) error {
	if !playback.IsTrackChange(old, new) {
		return nil
	}

	a.runCount++
	if a.runCount < a.period {
		return nil
	}
	a.runCount = 0

	ad := a.pick()
	if len(a.ads) >= a.capacity {
		a.ads = a.ads[len(a.ads)-a.capacity+1:]
	}
	a.ads = append(a.ads, ad)

	a.Host().Logger().Info("ad", "text", ad)
	return nil
}

// pick draws a text not already queued, falling back to any text when
// every one is queued.
func (a *Ads) pick() string {
	fresh := lo.Without(a.texts, a.ads...)
	if len(fresh) == 0 {
		fresh = a.texts
	}
	return fresh[a.rng.IntN(len(fresh))]
}

// Ads returns the ad queue, oldest first.
func (a *Ads) Ads() []string {
	return append([]string(nil), a.ads...)
}
