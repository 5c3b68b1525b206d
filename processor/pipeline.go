package processor

import (
	"context"

	"github.com/nci/gomemcache/memcache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nci/rsproduct/mas"
	"github.com/nci/rsproduct/metrics"
	"github.com/nci/rsproduct/provider"
	"github.com/nci/rsproduct/product"
	"github.com/nci/rsproduct/scene"
	"github.com/nci/rsproduct/utils"
)

// Registrar records finished subsets in a catalogue.
type Registrar interface {
	Register(ctx context.Context, rec *mas.Record) error
}

type SubsetJob struct {
	Source *product.Product
	Def    *product.SubsetDef
}

type SubsetResult struct {
	Target   *product.Product
	Warnings []error
	Info     *metrics.SubsetInfo
}

// SubsetPipeline runs independent subset jobs with bounded concurrency.
// Jobs may share a source product, which is only read.
type SubsetPipeline struct {
	Context         context.Context
	Concurrency     int
	Materialise     bool
	LineCacheWindow int
	TileCache       provider.Cache
	Transfer        scene.GeoCodingTransfer
	MetricsLogger   metrics.Logger
	Catalogue       Registrar
	Log             logrus.FieldLogger
}

func InitSubsetPipeline(ctx context.Context, concurrency int, metricsLogger metrics.Logger) *SubsetPipeline {
	if concurrency < 1 {
		concurrency = utils.DefaultConcurrency
	}
	return &SubsetPipeline{
		Context:       ctx,
		Concurrency:   concurrency,
		Materialise:   true,
		MetricsLogger: metricsLogger,
		Log:           logrus.StandardLogger(),
	}
}

// ConfigurePipeline builds a pipeline from the service settings of config:
// tile cache, catalogue and metrics log. The returned closer releases the
// catalogue and flushes the metrics log.
func ConfigurePipeline(ctx context.Context, config *utils.Config) (*SubsetPipeline, func(), error) {
	var (
		metricsLogger metrics.Logger
		closers       []func()
	)
	if config.MetricsLogDir != "" {
		fl := metrics.NewFileLogger(config.MetricsLogDir, 0, 0, false)
		metricsLogger = fl
		closers = append(closers, fl.Close)
	}
	sp := InitSubsetPipeline(ctx, config.Concurrency, metricsLogger)
	sp.LineCacheWindow = config.LineCacheWindow
	if config.MemcacheAddress != "" {
		// lazy connection; errors returned in .Get
		sp.TileCache = memcache.New(config.MemcacheAddress)
	}
	if config.CatalogueDSN != "" {
		catalogue, err := mas.Open(config.CatalogueDSN, config.MemcacheAddress)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, err
		}
		sp.Catalogue = catalogue
		closers = append(closers, func() { catalogue.Close() })
	}
	return sp, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}

func (sp *SubsetPipeline) log() logrus.FieldLogger {
	if sp.Log == nil {
		return logrus.StandardLogger()
	}
	return sp.Log
}

// Process runs jobs and returns their results in job order. The first
// failing job cancels the others; every target built so far is disposed
// and the error returned.
func (sp *SubsetPipeline) Process(jobs []SubsetJob) ([]*SubsetResult, error) {
	ctx := sp.Context
	if ctx == nil {
		ctx = context.Background()
	}
	var caches map[*product.Product]map[*product.Band]product.RasterProvider
	if sp.LineCacheWindow > 0 {
		var err error
		if caches, err = sp.cacheProviders(jobs); err != nil {
			return nil, err
		}
	}

	results := make([]*SubsetResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	concurrency := sp.Concurrency
	if concurrency < 1 {
		concurrency = utils.DefaultConcurrency
	}
	g.SetLimit(concurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			res, err := sp.run(gctx, job, caches[job.Source])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, res := range results {
			if res != nil {
				res.Target.Dispose()
			}
		}
		return nil, err
	}
	return results, nil
}

// cacheProviders builds the caching providers of every distinct source
// once, before any job reads them. Jobs sharing a source share its caches.
// The caches live for one Process call and the sources are not modified.
func (sp *SubsetPipeline) cacheProviders(jobs []SubsetJob) (map[*product.Product]map[*product.Band]product.RasterProvider, error) {
	caches := map[*product.Product]map[*product.Band]product.RasterProvider{}
	for _, job := range jobs {
		if job.Source == nil {
			continue
		}
		if _, ok := caches[job.Source]; ok {
			continue
		}
		wrapped, err := provider.CacheProviders(job.Source, sp.LineCacheWindow, sp.TileCache)
		if err != nil {
			return nil, err
		}
		caches[job.Source] = wrapped
		sp.log().WithFields(logrus.Fields{"product": job.Source.Name(), "bands": len(wrapped)}).Debug("raster caches created")
	}
	return caches, nil
}

func (sp *SubsetPipeline) run(ctx context.Context, job SubsetJob, providers map[*product.Band]product.RasterProvider) (*SubsetResult, error) {
	collector := metrics.NewMetricsCollector(sp.MetricsLogger)
	defer collector.Log()

	fail := func(err error) (*SubsetResult, error) {
		collector.Update(func(info *metrics.SubsetInfo) { info.Error = err.Error() })
		return nil, err
	}

	b, err := NewSubsetBuilder(job.Source, job.Def)
	if err != nil {
		return fail(err)
	}
	b.Transfer = sp.Transfer
	b.Providers = providers
	b.Log = sp.log()
	b.Metrics = collector
	b.Progress = NewLogProgress(b.Log)

	var target *product.Product
	if sp.Materialise {
		target, err = b.CreateSubset(ctx)
	} else {
		target, err = b.Build(ctx)
	}
	if err != nil {
		return fail(err)
	}

	if sp.Catalogue != nil {
		rec, err := mas.NewRecord(target)
		if err == nil {
			err = sp.Catalogue.Register(ctx, rec)
		}
		if err != nil {
			target.Dispose()
			return fail(err)
		}
	}

	return &SubsetResult{Target: target, Warnings: b.Warnings(), Info: collector.Snapshot()}, nil
}
