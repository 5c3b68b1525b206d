package processor

import (
	"github.com/nci/rsproduct/product"
	"github.com/nci/rsproduct/utils"
)

// NewSubsetDef converts one configured subset into a subset definition.
// Zero sub-sampling factors default to 1.
func NewSubsetDef(cfg utils.SubsetConfig) *product.SubsetDef {
	def := product.NewSubsetDef()
	def.SubsetName = cfg.Name
	def.Description = cfg.Description
	if cfg.SubSamplingX > 0 {
		def.SubSamplingX = cfg.SubSamplingX
	}
	if cfg.SubSamplingY > 0 {
		def.SubSamplingY = cfg.SubSamplingY
	}
	if r := cfg.Region; r != nil {
		def.Region = &product.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	}
	if cfg.NodeNames != nil {
		def.NodeNames = make([]string, 0, len(cfg.NodeNames))
		for _, name := range cfg.NodeNames {
			def.AddNodeName(name)
		}
	}
	def.IgnoreMetadata = cfg.IgnoreMetadata
	def.TreatVirtualBandsAsRealBands = cfg.TreatVirtualBandsAsReal
	return def
}

// JobsFromConfig pairs every configured subset with src.
func JobsFromConfig(config *utils.Config, src *product.Product) []SubsetJob {
	jobs := make([]SubsetJob, 0, len(config.Subsets))
	for _, s := range config.Subsets {
		jobs = append(jobs, SubsetJob{Source: src, Def: NewSubsetDef(s)})
	}
	return jobs
}
