package pump

import (
	"github.com/turbot/hostspipe/observable"
	"github.com/turbot/hostspipe/output"
)

type Option func(*Pump) error

// WithExtractor sets the extractor used to pull entries out of each line
func WithExtractor(extractor output.EntryExtractor) Option {
	return func(p *Pump) error {
		p.transform = output.NewHostsFileTransform(extractor)
		return nil
	}
}

// WithObservers adds observers which receive every event the pump publishes
func WithObservers(observers ...observable.Observer) Option {
	return func(p *Pump) error {
		for _, o := range observers {
			if err := p.AddObserver(o); err != nil {
				return err
			}
		}
		return nil
	}
}
