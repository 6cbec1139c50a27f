package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ziyobook/pos-ledger/ledger"
	"github.com/ziyobook/pos-ledger/pos"
)

func TestSubscribers_NotifyEachWithOwnCopy(t *testing.T) {
	var subs ledger.Subscribers
	var first, second pos.Snapshot

	subs.Add(func(s pos.Snapshot) {
		first = s
		s.Products[0].Stock = -1
	})
	off := subs.Add(func(s pos.Snapshot) { second = s })
	assert.Equal(t, 2, subs.Len())

	snap := baseline()
	subs.Notify(snap)

	assert.Equal(t, 12, snap.Products[0].Stock)
	assert.Len(t, first.Products, 2)
	assert.Len(t, second.Products, 2)
	assert.NotEqual(t, -1, second.Products[0].Stock)

	off()
	assert.Equal(t, 1, subs.Len())
}

func TestSubscribers_CallbackMayUnsubscribe(t *testing.T) {
	var subs ledger.Subscribers
	calls := 0
	var off func()
	off = subs.Add(func(pos.Snapshot) {
		calls++
		off()
	})

	subs.Notify(baseline())
	subs.Notify(baseline())

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, subs.Len())
}
