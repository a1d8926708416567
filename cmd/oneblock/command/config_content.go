package command

import (
	"fmt"

	"github.com/katacr/go-oneblock/internal/entity"
	"github.com/katacr/go-oneblock/internal/loot"
	"github.com/katacr/go-oneblock/internal/stage"
	"github.com/pixil98/go-errors"
)

// ContentConfig points at the directories holding the YAML documents.
type ContentConfig struct {
	Stages   string `json:"stages"`
	Chests   string `json:"chests"`
	Entities string `json:"entities"`
}

func (c *ContentConfig) validate() error {
	el := errors.NewErrorList()

	if c.Stages == "" {
		el.Add(fmt.Errorf("content.stages is required"))
	}
	if c.Chests == "" {
		el.Add(fmt.Errorf("content.chests is required"))
	}

	return el.Err()
}

func (c *ContentConfig) buildCatalogs(gen *GeneratorConfig) (*stage.Catalog, *loot.Catalog, *entity.Catalog, error) {
	stageOpts := []stage.CatalogOpt{stage.WithInitialStage(gen.InitialStage)}
	if gen.DefaultBlock != "" {
		b, err := stage.ParseBlockRef(gen.DefaultBlock)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parsing default_block: %w", err)
		}
		stageOpts = append(stageOpts, stage.WithDefaultBlock(b))
	}

	stages, err := stage.NewCatalog(c.Stages, stageOpts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating stage catalog: %w", err)
	}

	chests, err := loot.NewCatalog(c.Chests)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating chest catalog: %w", err)
	}

	var packs *entity.Catalog
	if c.Entities != "" {
		packs, err = entity.NewCatalog(c.Entities)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("creating entity catalog: %w", err)
		}
	}

	return stages, chests, packs, nil
}
