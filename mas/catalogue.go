package mas

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/lib/pq"
	"github.com/nci/gomemcache/memcache"
	"github.com/sirupsen/logrus"
)

// Cache is the subset of the memcache client used for lookups.
type Cache interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
}

const schema = `create table if not exists subsets (
	name           text primary key,
	product_type   text not null,
	source_product text not null,
	width          integer not null,
	height         integer not null,
	sub_sampling_x integer not null,
	sub_sampling_y integer not null,
	region         bigint[],
	node_names     text[] not null,
	start_time     timestamptz,
	end_time       timestamptz,
	footprint      text not null,
	registered     timestamptz not null default now()
)`

// Catalogue stores subset records in PostgreSQL. Lookups are cached in
// memcache when a cache is configured.
type Catalogue struct {
	db    *sql.DB
	cache Cache
	Log   logrus.FieldLogger
}

// Open connects to the catalogue database. An empty memcacheAddress
// disables lookup caching.
func Open(dsn, memcacheAddress string) (*Catalogue, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "opening catalogue database")
	}
	var cache Cache
	if memcacheAddress != "" {
		// lazy connection; errors returned in .Get
		cache = memcache.New(memcacheAddress)
	}
	return New(db, cache), nil
}

func New(db *sql.DB, cache Cache) *Catalogue {
	return &Catalogue{db: db, cache: cache, Log: logrus.StandardLogger()}
}

// Init creates the catalogue table if needed.
func (c *Catalogue) Init(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, errors.CodeDatabase, "creating catalogue table")
	}
	return nil
}

// Register inserts or replaces the record of a subset product.
func (c *Catalogue) Register(ctx context.Context, rec *Record) error {
	_, err := c.db.ExecContext(ctx,
		`insert into subsets (name, product_type, source_product, width, height,
			sub_sampling_x, sub_sampling_y, region, node_names, start_time, end_time, footprint)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		on conflict (name) do update set
			product_type = excluded.product_type,
			source_product = excluded.source_product,
			width = excluded.width,
			height = excluded.height,
			sub_sampling_x = excluded.sub_sampling_x,
			sub_sampling_y = excluded.sub_sampling_y,
			region = excluded.region,
			node_names = excluded.node_names,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			footprint = excluded.footprint,
			registered = now()`,
		rec.Name, rec.ProductType, rec.SourceProduct, rec.Width, rec.Height,
		rec.SubSamplingX, rec.SubSamplingY, pq.Array(rec.Region), pq.Array(rec.NodeNames),
		rec.StartTime, rec.EndTime, rec.Footprint)
	if err != nil {
		return errors.WithContext(errors.Wrap(err, errors.CodeDatabase, "registering subset"), "name", rec.Name)
	}
	if c.cache != nil {
		// a stale lookup must not survive a re-registration
		c.setCached(rec)
	}
	return nil
}

func lookupKey(name string) string {
	buff := md5.Sum([]byte("subsets?name=" + name))
	return hex.EncodeToString(buff[:])
}

// Lookup returns the record called name. Missing records are CodeNotFound
// errors.
func (c *Catalogue) Lookup(ctx context.Context, name string) (*Record, error) {
	if c.cache != nil {
		if cached, err := c.cache.Get(lookupKey(name)); err == nil && cached != nil {
			var rec Record
			if err := json.Unmarshal(cached.Value, &rec); err == nil {
				return &rec, nil
			}
		}
	}

	var (
		rec        Record
		start, end sql.NullTime
	)
	err := c.db.QueryRowContext(ctx,
		`select name, product_type, source_product, width, height,
			sub_sampling_x, sub_sampling_y, region, node_names, start_time, end_time, footprint
		from subsets where name = $1`, name).Scan(
		&rec.Name, &rec.ProductType, &rec.SourceProduct, &rec.Width, &rec.Height,
		&rec.SubSamplingX, &rec.SubSamplingY, pq.Array(&rec.Region), pq.Array(&rec.NodeNames),
		&start, &end, &rec.Footprint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithContext(errors.Newf(errors.CodeNotFound, "subset '%s' not catalogued", name), "name", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabase, "looking up subset")
	}
	rec.StartTime = nullTime(start)
	rec.EndTime = nullTime(end)

	if c.cache != nil {
		c.setCached(&rec)
	}
	return &rec, nil
}

func (c *Catalogue) setCached(rec *Record) {
	payload, err := json.Marshal(rec)
	if err == nil {
		err = c.cache.Set(&memcache.Item{Key: lookupKey(rec.Name), Value: payload})
	}
	if err != nil {
		c.Log.WithError(err).WithField("name", rec.Name).Debug("memcache set failed")
	}
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// SetPoolLimits bounds the idle and open database connections.
func (c *Catalogue) SetPoolLimits(idle, open int) {
	c.db.SetMaxIdleConns(idle)
	c.db.SetMaxOpenConns(open)
}

func (c *Catalogue) Close() error {
	return c.db.Close()
}
