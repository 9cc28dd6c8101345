package config

import (
	"fmt"

	"github.com/aerstatic/aer/internal/processor"
)

// BuildProcessors constructs the profile's processor pipeline in
// declared order, failing on the first unrecognized processor name
// (per the config error described in the configuration file section).
func (p *Profile) BuildProcessors() ([]processor.Processor, error) {
	procs := make([]processor.Processor, 0, len(p.Procs))
	for _, entry := range p.Procs {
		proc, err := processor.New(entry.Name, entry.Options)
		if err != nil {
			return nil, fmt.Errorf("config: processor %q: %w", entry.Name, err)
		}
		procs = append(procs, proc)
	}
	return procs, nil
}
