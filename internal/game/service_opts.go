package game

import (
	"github.com/katacr/go-oneblock/internal/progress"
	"github.com/katacr/go-oneblock/internal/weighted"
	"github.com/katacr/go-oneblock/internal/world"
)

type ServiceOpt func(*Service)

// WithRepository persists progress.
func WithRepository(r progress.Repository) ServiceOpt {
	return func(s *Service) {
		s.repo = r
	}
}

// WithAuditor records generator events.
func WithAuditor(a Auditor) ServiceOpt {
	return func(s *Service) {
		s.auditor = a
	}
}

// WithNotifier sends chat messages to players. A notifier that also
// implements progress.Announcer receives stage announcements.
func WithNotifier(n Notifier) ServiceOpt {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithCustomBlocks places content pack blocks.
func WithCustomBlocks(c world.CustomBlockPlacer) ServiceOpt {
	return func(s *Service) {
		s.custom = c
	}
}

// WithItemResolver resolves content pack items in chest loot.
func WithItemResolver(r world.ItemResolver) ServiceOpt {
	return func(s *Service) {
		s.items = r
	}
}

func WithRand(r weighted.Rand) ServiceOpt {
	return func(s *Service) {
		s.rand = r
	}
}

// WithAllowedWorlds limits where players can start. No worlds allows all.
func WithAllowedWorlds(worlds ...string) ServiceOpt {
	return func(s *Service) {
		for _, w := range worlds {
			s.allowed[w] = true
		}
	}
}

// WithChestChance sets the chest chance of stages without a chest table.
func WithChestChance(p float64) ServiceOpt {
	return func(s *Service) {
		s.chestChance = p
	}
}

func WithDebug(enabled bool) ServiceOpt {
	return func(s *Service) {
		s.debug = enabled
	}
}

// WithTransformedMessage sets the debug message template sent after placement.
func WithTransformedMessage(tmpl string) ServiceOpt {
	return func(s *Service) {
		s.transformed = tmpl
	}
}
