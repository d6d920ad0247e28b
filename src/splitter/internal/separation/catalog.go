package separation

import (
	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

// TrackBinding pairs one output stem with the graph node that produces it.
type TrackBinding struct {
	// Name is the stem name, which also names the output file.
	Name string
	// OutputBinding is the graph operation holding the stem's samples.
	OutputBinding string
}

// ModelInfo describes one pretrained separation model.
type ModelInfo struct {
	// Name is both the catalog key and the model's directory name under
	// the models dir.
	Name   string
	Tracks []TrackBinding
}

// TrackNames lists the stems in output order.
func (m ModelInfo) TrackNames() []string {
	names := make([]string, 0, len(m.Tracks))
	for _, track := range m.Tracks {
		names = append(names, track.Name)
	}
	return names
}

// the output binding names come from the exported spleeter graphs,
// see https://github.com/deezer/spleeter/issues/155#issuecomment-565178677
var catalog = []ModelInfo{
	{
		Name: "2stems",
		Tracks: []TrackBinding{
			{Name: "vocals", OutputBinding: "strided_slice_13"},
			{Name: "accompaniment", OutputBinding: "strided_slice_23"},
		},
	},
	{
		Name: "4stems",
		Tracks: []TrackBinding{
			{Name: "vocals", OutputBinding: "strided_slice_13"},
			{Name: "drums", OutputBinding: "strided_slice_23"},
			{Name: "bass", OutputBinding: "strided_slice_33"},
			{Name: "other", OutputBinding: "strided_slice_43"},
		},
	},
	{
		Name: "5stems",
		Tracks: []TrackBinding{
			{Name: "vocals", OutputBinding: "strided_slice_18"},
			{Name: "drums", OutputBinding: "strided_slice_38"},
			{Name: "bass", OutputBinding: "strided_slice_48"},
			{Name: "piano", OutputBinding: "strided_slice_28"},
			{Name: "other", OutputBinding: "strided_slice_58"},
		},
	},
	{
		Name: "2stems-16kHz",
		Tracks: []TrackBinding{
			{Name: "vocals", OutputBinding: "strided_slice_13"},
			{Name: "accompaniment", OutputBinding: "strided_slice_23"},
		},
	},
	{
		Name: "4stems-16kHz",
		Tracks: []TrackBinding{
			{Name: "vocals", OutputBinding: "strided_slice_13"},
			{Name: "drums", OutputBinding: "strided_slice_23"},
			{Name: "bass", OutputBinding: "strided_slice_33"},
			{Name: "other", OutputBinding: "strided_slice_43"},
		},
	},
	{
		Name: "5stems-16kHz",
		Tracks: []TrackBinding{
			{Name: "vocals", OutputBinding: "strided_slice_18"},
			{Name: "drums", OutputBinding: "strided_slice_38"},
			{Name: "bass", OutputBinding: "strided_slice_48"},
			{Name: "piano", OutputBinding: "strided_slice_28"},
			{Name: "other", OutputBinding: "strided_slice_58"},
		},
	},
}

// Lookup finds a model by name. The returned ModelInfo is a copy, so
// callers cannot mutate the catalog through it.
func Lookup(name string) (ModelInfo, error) {
	for _, model := range catalog {
		if model.Name == name {
			tracks := make([]TrackBinding, len(model.Tracks))
			copy(tracks, model.Tracks)
			model.Tracks = tracks
			return model, nil
		}
	}

	return ModelInfo{}, cerr.Field("model_name", name).
		Wrap(ErrUnknownModel).
		Error("Failed to find a model with this name")
}

// Names lists every model name in catalog order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for _, model := range catalog {
		names = append(names, model.Name)
	}
	return names
}
