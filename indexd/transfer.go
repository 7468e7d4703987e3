package indexd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/sagarc03/sialo"
	"github.com/vivint/infectious"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
)

// maxTotalShards is the largest shard count a Reed-Solomon code over
// GF(2^8) supports.
const maxTotalShards = 256

func shardPath(root sialo.ObjectID) string {
	return "/shards/" + root.String()
}

// Upload reads r to EOF, erasure-codes it slab by slab and stores every
// shard with the indexer. opts.ShardUploaded is notified once per stored
// shard; Upload never closes it. The returned object is not pinned.
func (s *SDK) Upload(ctx context.Context, r io.Reader, opts UploadOptions) (*Object, error) {
	o := opts.withDefaults()
	total := int(o.DataShards) + int(o.ParityShards)
	if o.DataShards == 0 || total > maxTotalShards {
		return nil, fmt.Errorf("upload: %w: %d data and %d parity shards", ErrInvalidOptions, o.DataShards, o.ParityShards)
	}

	fec, err := infectious.NewFEC(int(o.DataShards), total)
	if err != nil {
		return nil, fmt.Errorf("upload: create encoder: %w", err)
	}

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	obj := &Object{CreatedAt: s.opts.now().UTC()}
	buf := make([]byte, uint64(o.DataShards)*o.SectorSize)

	for {
		n, readErr := io.ReadFull(r, buf)
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil && !errors.Is(readErr, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("upload: read input: %w", readErr)
		}

		_, _ = hasher.Write(buf[:n])
		clear(buf[n:])

		slab, err := s.uploadSlab(ctx, fec, buf, o)
		if err != nil {
			return nil, fmt.Errorf("upload slab %d: %w", len(obj.Slabs), err)
		}
		slab.Length = uint64(n)
		obj.Slabs = append(obj.Slabs, slab)
		obj.Size += uint64(n)

		if readErr != nil {
			break
		}
	}

	copy(obj.ID[:], hasher.Sum(nil))
	return obj, nil
}

func (s *SDK) uploadSlab(ctx context.Context, fec *infectious.FEC, data []byte, o UploadOptions) (Slab, error) {
	shares := make([][]byte, fec.Total())
	err := fec.Encode(data, func(sh infectious.Share) {
		shares[sh.Number] = bytes.Clone(sh.Data)
	})
	if err != nil {
		return Slab{}, fmt.Errorf("encode: %w", err)
	}

	slab := Slab{
		DataShards:   o.DataShards,
		ParityShards: o.ParityShards,
		SectorSize:   o.SectorSize,
		Shards:       make([]Shard, len(shares)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.MaxInflight)
	for i, shard := range shares {
		root := shardRoot(shard)
		slab.Shards[i] = Shard{Index: i, Root: root}
		g.Go(func() error {
			if err := s.putShard(gctx, root, shard); err != nil {
				return fmt.Errorf("shard %d: %w", i, err)
			}
			if o.ShardUploaded != nil {
				o.ShardUploaded.Notify()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Slab{}, err
	}
	return slab, nil
}

func (s *SDK) putShard(ctx context.Context, root sialo.ObjectID, data []byte) error {
	path := shardPath(root)
	resp, err := s.signed(ctx, http.MethodPut, path).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(data).
		Put(path)
	if err != nil {
		return fmt.Errorf("put shard: %w", err)
	}
	return mapHTTPError(resp)
}

func (s *SDK) getShard(ctx context.Context, root sialo.ObjectID) ([]byte, error) {
	path := shardPath(root)
	resp, err := s.signed(ctx, http.MethodGet, path).Get(path)
	if err != nil {
		return nil, fmt.Errorf("get shard: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}
	data := resp.Body()
	if shardRoot(data) != root {
		return nil, fmt.Errorf("%w: %s", ErrCorruptShard, root)
	}
	return data, nil
}

// Download reconstructs obj and writes its content to w. Each slab needs
// any DataShards of its shards; missing or corrupt shards are replaced by
// fetching further ones. The written content is checked against obj.ID.
func (s *SDK) Download(ctx context.Context, w io.Writer, obj *Object, opts DownloadOptions) error {
	if opts.MaxInflight <= 0 {
		opts.MaxInflight = DefaultMaxInflight
	}

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	out := io.MultiWriter(w, hasher)

	for i := range obj.Slabs {
		data, err := s.downloadSlab(ctx, &obj.Slabs[i], opts)
		if err != nil {
			return fmt.Errorf("download slab %d: %w", i, err)
		}
		if _, err := out.Write(data); err != nil {
			return fmt.Errorf("download: write output: %w", err)
		}
	}

	var sum sialo.ObjectID
	copy(sum[:], hasher.Sum(nil))
	if sum != obj.ID {
		return fmt.Errorf("download: %w: content hash %s does not match object %s", ErrCorruptShard, sum, obj.ID)
	}
	return nil
}

func (s *SDK) downloadSlab(ctx context.Context, slab *Slab, opts DownloadOptions) ([]byte, error) {
	k := int(slab.DataShards)
	total := k + int(slab.ParityShards)
	if k == 0 || total > maxTotalShards || len(slab.Shards) > total {
		return nil, fmt.Errorf("%w: %d data and %d parity shards", ErrInvalidOptions, slab.DataShards, slab.ParityShards)
	}
	if slab.Length > uint64(k)*slab.SectorSize {
		return nil, fmt.Errorf("%w: slab length %d exceeds capacity", ErrInvalidOptions, slab.Length)
	}

	fec, err := infectious.NewFEC(k, total)
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	var (
		mu     sync.Mutex
		shares []infectious.Share
		next   int
	)
	for len(shares) < k && next < len(slab.Shards) {
		want := min(k-len(shares), len(slab.Shards)-next)
		batch := slab.Shards[next : next+want]
		next += want

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.MaxInflight)
		for _, sh := range batch {
			g.Go(func() error {
				data, err := s.getShard(gctx, sh.Root)
				if err != nil {
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					s.opts.logger.Warn("shard unavailable", "root", sh.Root, "index", sh.Index, "err", err)
					return nil
				}
				mu.Lock()
				shares = append(shares, infectious.Share{Number: sh.Index, Data: data})
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	if len(shares) < k {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughShards, len(shares), k)
	}

	data, err := fec.Decode(nil, shares)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return data[:slab.Length], nil
}
