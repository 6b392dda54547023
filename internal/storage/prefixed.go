package storage

import "context"

// Prefixed wraps a Driver so every key is transparently namespaced
// under a root prefix, letting every other component work in
// unprefixed key space (ops/, snapshots/, locks/) while multiple
// users' data shares one backend without colliding.
type Prefixed struct {
	inner  Driver
	prefix string
}

// NewPrefixed wraps driver so every key is stored under
// "<prefix>/<key>". An empty prefix makes Prefixed a no-op passthrough.
func NewPrefixed(driver Driver, prefix string) *Prefixed {
	return &Prefixed{inner: driver, prefix: prefix}
}

func (p *Prefixed) namespaced(key string) string {
	if p.prefix == "" {
		return key
	}
	return p.prefix + "/" + key
}

func (p *Prefixed) Put(ctx context.Context, key string, data []byte, overwrite bool) error {
	return p.inner.Put(ctx, p.namespaced(key), data, overwrite)
}

func (p *Prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.inner.Get(ctx, p.namespaced(key))
}

func (p *Prefixed) List(ctx context.Context, prefix string) ([]ObjectMeta, error) {
	metas, err := p.inner.List(ctx, p.namespaced(prefix))
	if err != nil {
		return nil, err
	}
	if p.prefix == "" {
		return metas, nil
	}
	strip := p.prefix + "/"
	out := make([]ObjectMeta, len(metas))
	for i, meta := range metas {
		meta.Key = meta.Key[len(strip):]
		out[i] = meta
	}
	return out, nil
}

func (p *Prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.namespaced(key))
}

func (p *Prefixed) Probe(ctx context.Context) error {
	return p.inner.Probe(ctx)
}
