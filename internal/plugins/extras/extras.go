// Package extras provides third-party style plugins: an ad queue, usage
// statistics and several playlist randomizers.
package extras

import (
	"fmt"
	"io"

	"github.com/tidwall/gjson"

	"github.com/dshills/playercore/internal/plugin"
)

// CatalogName is the name of the native load unit.
const CatalogName = "extras"

// Class names.
const (
	ClassAds                   = "Ads"
	ClassUsageStats            = "UsageStats"
	ClassContributorRandomizer = "ContributorRandomizer"
	ClassShuffle               = "Shuffle"
	ClassShuffledPlaylists     = "ShuffledPlaylists"
	ClassListenerRandomizer    = "ListenerRandomizer"
)

// Plugin ids.
const (
	IDAds                   = "extras.ads"
	IDUsageStats            = "extras.usage-stats"
	IDContributorRandomizer = "extras.contributor-randomizer"
	IDShuffle               = "extras.shuffle"
	IDShuffledPlaylists     = "extras.shuffled-playlists"
	IDListenerRandomizer    = "extras.listener-randomizer"
)

// Randomizer is the supertype name declared by every plugin that reorders
// tracks.
const Randomizer = "Randomizer"

// Catalog returns a fresh catalog of the extras plugins.
func Catalog() *plugin.Catalog {
	randomizer := []string{Randomizer}

	return plugin.NewCatalog(CatalogName).
		MustRegister(plugin.Descriptor{Class: ClassAds, ID: IDAds}, plugin.Construct(NewAds)).
		MustRegister(plugin.Descriptor{Class: ClassUsageStats, ID: IDUsageStats}, plugin.New[UsageStats]()).
		MustRegister(plugin.Descriptor{
			Class:      ClassContributorRandomizer,
			ID:         IDContributorRandomizer,
			Implements: randomizer,
		}, plugin.Construct(NewContributorRandomizer)).
		MustRegister(plugin.Descriptor{
			Class:      ClassShuffle,
			ID:         IDShuffle,
			Implements: randomizer,
		}, plugin.Construct(NewShuffle)).
		MustRegister(plugin.Descriptor{
			Class:      ClassShuffledPlaylists,
			ID:         IDShuffledPlaylists,
			Implements: randomizer,
		}, plugin.Construct(NewShuffledPlaylists)).
		MustRegister(plugin.Descriptor{
			Class:      ClassListenerRandomizer,
			ID:         IDListenerRandomizer,
			Implements: randomizer,
		}, plugin.Construct(NewListenerRandomizer))
}

// readBlob reads a JSON state blob. ok is false when there is no state.
func readBlob(r io.Reader) (doc gjson.Result, ok bool, err error) {
	if r == nil {
		return gjson.Result{}, false, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return gjson.Result{}, false, err
	}
	if len(data) == 0 {
		return gjson.Result{}, false, nil
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, false, fmt.Errorf("state is not valid JSON")
	}
	return gjson.ParseBytes(data), true, nil
}
