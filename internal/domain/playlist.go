package domain

// Playlist is the normalized manifest for a single broadcast day.
type Playlist struct {
	Date        string  `json:"date"`
	StartSec    float64 `json:"start_sec"`
	Program     []Media `json:"program"`
	CurrentFile string  `json:"current_file,omitempty"`
	Modified    string  `json:"modified,omitempty"`
}

// HasSource reports whether the playlist resolved to a real manifest file,
// as opposed to a synthetic fill-mode placeholder.
func (p Playlist) HasSource() bool {
	return p.CurrentFile != ""
}

// AssignBegin stamps program[i].Begin per the §3 invariant:
// begin[i] = start_sec + Σ_{j<i} (out_j - seek_j).
func (p *Playlist) AssignBegin() {
	cursor := p.StartSec
	for i := range p.Program {
		begin := cursor
		p.Program[i].Begin = &begin
		cursor += p.Program[i].Out - p.Program[i].Seek
	}
}
