package decode

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/geosolve/internal/logging"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/geometry"
)

// Stats summarizes a collection.
type Stats struct {
	Items   int
	Decoded int
	Failed  int
}

// Collector walks a response tree and accumulates decoded objects.
type Collector struct {
	chain  Chain
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option configures the Collector.
type Option func(*Collector)

// WithChain replaces the default decoder chain.
func WithChain(chain Chain) Option {
	return func(c *Collector) {
		c.chain = chain
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Collector) {
		c.hooks = hooks
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// NewCollector creates a Collector using DefaultChain unless overridden.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		chain:  DefaultChain(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect creates a new document holding every decodable item of resp, added
// with no attributes. The caller owns the document, including when it is
// empty. Outputs are visited in order and paths in sorted order.
func (c *Collector) Collect(ctx context.Context, resp *domain.SolveResponse) (*geometry.Document, Stats) {
	doc := geometry.NewDocument()
	var stats Stats

	for _, out := range resp.Values {
		paths := make([]string, 0, len(out.InnerTree))
		for p := range out.InnerTree {
			paths = append(paths, p)
		}
		slices.Sort(paths)

		for _, path := range paths {
			for _, item := range out.InnerTree[path] {
				stats.Items++
				res := c.chain.Decode(item)
				if res.Err != nil {
					stats.Failed++
					c.logger.Debug("Item not decoded", "path", path, "type", item.Type, "decoder", res.Decoder, "err", res.Err)
				}
				if res.Object != nil {
					doc.Add(res.Object, nil)
					stats.Decoded++
				}
				c.emit(ctx, path, item, res)
			}
		}
	}
	return doc, stats
}

func (c *Collector) emit(ctx context.Context, path string, item domain.Item, res Result) {
	if c.hooks.OnItemDecode == nil {
		return
	}
	c.hooks.OnItemDecode(ctx, &domain.ItemEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventItemDecode,
			SessionID: domain.SessionIDFrom(ctx),
		},
		Path:     path,
		ItemType: item.Type,
		Decoder:  res.Decoder,
		Decoded:  res.Object != nil,
		Err:      res.Err,
	})
}
