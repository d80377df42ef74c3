package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/cheds/internal/dataset"
	"github.com/zjrosen/cheds/internal/metrics"
	"github.com/zjrosen/cheds/internal/pubsub"
	"github.com/zjrosen/cheds/internal/table"
)

func ds(id string, rows int) *dataset.Dataset {
	r := make([][]string, rows)
	for i := range r {
		r[i] = []string{"x"}
	}
	return dataset.New(id+"_file.csv", table.New([]string{"c"}, r), nil, dataset.SourceDirectory)
}

func TestNew_Empty(t *testing.T) {
	r := New(nil)
	require.False(t, r.IsLoaded())
	require.Equal(t, 0, r.Len())
	require.Empty(t, r.All())
	require.Equal(t, uint64(0), r.Generation())

	_, ok := r.Get("CHEDS-LT-01")
	require.False(t, ok)
}

func TestPut_OverwritesInPlace(t *testing.T) {
	r := New(nil)
	r.Put(ds("A", 1))
	r.Put(ds("B", 1))
	r.Put(ds("A", 7))

	require.Equal(t, []string{"A", "B"}, r.IDs())
	got, ok := r.Get("A")
	require.True(t, ok)
	require.Equal(t, 7, got.RowCount)
	require.Equal(t, uint64(3), r.Generation())
}

func TestReplaceAll_ExactContents(t *testing.T) {
	r := New(nil)
	r.Merge([]*dataset.Dataset{ds("A", 1), ds("B", 2)})

	r.ReplaceAll([]*dataset.Dataset{ds("C", 3)})
	require.Equal(t, []string{"C"}, r.IDs())
	_, ok := r.Get("A")
	require.False(t, ok)
}

func TestReplaceAll_EmptyUnloads(t *testing.T) {
	r := New(nil)
	r.ReplaceAll([]*dataset.Dataset{ds("A", 1)})
	require.True(t, r.IsLoaded())

	r.ReplaceAll(nil)
	require.False(t, r.IsLoaded())
}

func TestMerge_KeepsUntouched(t *testing.T) {
	r := New(nil)
	r.ReplaceAll([]*dataset.Dataset{ds("A", 1), ds("B", 2)})

	r.Merge([]*dataset.Dataset{ds("B", 20), ds("C", 3)})

	require.Equal(t, []string{"A", "B", "C"}, r.IDs())
	b, _ := r.Get("B")
	require.Equal(t, 20, b.RowCount)
	a, _ := r.Get("A")
	require.Equal(t, 1, a.RowCount)
}

func TestSnapshotsAreIndependent(t *testing.T) {
	r := New(nil)
	r.Put(ds("A", 1))

	snap := r.Map()
	all := r.All()
	r.ReplaceAll(nil)

	require.Len(t, snap, 1)
	require.Len(t, all, 1)
}

func TestSubscribe_ReceivesChanges(t *testing.T) {
	r := New(nil)
	t.Cleanup(r.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := r.Subscribe(ctx)

	r.Merge([]*dataset.Dataset{ds("A", 1), ds("B", 1)})
	r.ReplaceAll(nil)

	select {
	case ev := <-events:
		require.Equal(t, pubsub.MergedEvent, ev.Type)
		require.Equal(t, []string{"A", "B"}, ev.Payload.ProductIDs)
		require.Equal(t, 2, ev.Payload.Size)
	case <-time.After(time.Second):
		t.Fatal("no merge event")
	}

	select {
	case ev := <-events:
		require.Equal(t, pubsub.ReplacedEvent, ev.Type)
		require.Equal(t, 0, ev.Payload.Size)
		require.Equal(t, uint64(2), ev.Payload.Generation)
	case <-time.After(time.Second):
		t.Fatal("no replace event")
	}
}

func TestMetrics_TrackSize(t *testing.T) {
	m := metrics.New()
	r := New(m)

	r.Merge([]*dataset.Dataset{ds("A", 1), ds("B", 1)})
	require.Equal(t, 2.0, testutil.ToFloat64(m.LoadedProducts))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Reloads.WithLabelValues("merged")))
}

func TestConcurrentReadsDuringReplace(t *testing.T) {
	r := New(nil)
	r.ReplaceAll([]*dataset.Dataset{ds("A", 1), ds("B", 1)})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				n := len(r.All())
				if n != 2 && n != 3 {
					t.Errorf("observed partial batch of %d", n)
					return
				}
			}
		}()
	}
	for j := 0; j < 200; j++ {
		if j%2 == 0 {
			r.ReplaceAll([]*dataset.Dataset{ds("A", 1), ds("B", 1), ds("C", 1)})
		} else {
			r.ReplaceAll([]*dataset.Dataset{ds("A", 1), ds("B", 1)})
		}
	}
	wg.Wait()
}

func TestIsLoadedIffNonEmpty_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := New(nil)
		ids := rapid.SliceOf(rapid.SampledFrom([]string{"A", "B", "C", "D"}))
		steps := rapid.IntRange(1, 10).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			var batch []*dataset.Dataset
			for _, id := range ids.Draw(t, "ids") {
				batch = append(batch, ds(id, 1))
			}
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				r.ReplaceAll(batch)
			case 1:
				r.Merge(batch)
			default:
				if len(batch) > 0 {
					r.Put(batch[0])
				}
			}
			if r.IsLoaded() != (len(r.Map()) > 0) {
				t.Fatalf("IsLoaded=%v with %d entries", r.IsLoaded(), len(r.Map()))
			}
			if len(r.IDs()) != r.Len() {
				t.Fatalf("order has %d ids, map has %d", len(r.IDs()), r.Len())
			}
		}
	})
}
