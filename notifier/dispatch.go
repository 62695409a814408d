package notifier

import (
	"context"
	"fmt"

	"github.com/releasewatch/releasewatch/log"
	"github.com/releasewatch/releasewatch/models"
)

// Store is the single store operation dispatch needs: atomically
// overwrite one release's pending channel set.
type Store interface {
	UpdateReleasePending(id int64, pending models.ChannelSet) error
}

// Dispatcher drives each pending channel of a release to completion. The
// pending flag on the record is the single source of truth: it is cleared
// and persisted right after a delivery attempt finishes (or when the
// channel is unconfigured), so a channel fires at most once per
// activation. No locking guards against two overlapping fleet runs; the
// scheduler runs one at a time.
type Dispatcher struct {
	store     Store
	notifiers map[models.Channel]Notifier
}

func NewDispatcher(store Store, notifiers ...Notifier) *Dispatcher {
	d := Dispatcher{
		store:     store,
		notifiers: map[models.Channel]Notifier{},
	}
	for _, n := range notifiers {
		d.notifiers[n.Kind()] = n
	}
	return &d
}

// Dispatch runs every channel still pending on the release, in the
// enum's stable order. A delivery failure propagates with the remaining
// flags untouched, so a later manual run can pick them up.
func (d *Dispatcher) Dispatch(ctx context.Context, release *models.Release, repo *models.Repository) error {
	for _, ch := range models.Channels() {
		if !release.Pending.Has(ch) {
			continue
		}
		if err := d.dispatchOne(ctx, release, repo, ch); err != nil {
			return err
		}
	}
	return nil
}

// Renotify force-activates one channel for a release and immediately
// drives it. This is the only path that sets a pending flag back after
// creation.
func (d *Dispatcher) Renotify(ctx context.Context, release *models.Release, repo *models.Repository, ch models.Channel) error {
	release.Pending.Add(ch)
	if err := d.store.UpdateReleasePending(release.ID, release.Pending); err != nil {
		return err
	}
	return d.dispatchOne(ctx, release, repo, ch)
}

func (d *Dispatcher) dispatchOne(ctx context.Context, release *models.Release, repo *models.Repository, ch models.Channel) error {
	notifier, ok := d.notifiers[ch]
	if !ok {
		log.LogAppWarn(fmt.Sprintf("No notifier registered for channel %s, ignored", ch), nil)
		return nil
	}
	if !notifier.Configured() {
		// an unconfigured channel owes nothing, there is no retry queue
		log.LogAppInfo(fmt.Sprintf("%s notifications are not configured, do not send for %q", ch, release.URL))
		return d.clearPending(release, ch)
	}
	if err := notifier.Notify(ctx, release, repo); err != nil {
		return err
	}
	log.LogAppInfo(fmt.Sprintf("Sent %s notification for %q", ch, release.URL))
	return d.clearPending(release, ch)
}

func (d *Dispatcher) clearPending(release *models.Release, ch models.Channel) error {
	release.Pending.Remove(ch)
	return d.store.UpdateReleasePending(release.ID, release.Pending)
}
