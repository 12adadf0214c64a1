package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/postbridge/internal/lock"
	"github.com/maheshrc27/postbridge/internal/metrics"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/provider"
	"github.com/maheshrc27/postbridge/internal/repository"
	"github.com/maheshrc27/postbridge/internal/transfer"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 10

// PostCreator persists a new draft post and its account selection.
type PostCreator interface {
	Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error)
}

// Orchestrator drives posts through draft -> scheduled -> published, and the
// failed and cancelled side branches, against the tenant's provider.
type Orchestrator interface {
	Schedule(ctx context.Context, userID, postID int64) (*models.Post, error)
	PublishNow(ctx context.Context, userID, postID int64) (*models.Post, error)
	Cancel(ctx context.Context, userID, postID int64) (*models.Post, error)
	Update(ctx context.Context, userID, postID int64, edit *transfer.PostEdit) (*models.Post, error)
	BulkSchedule(ctx context.Context, userID int64, items []*transfer.PostCreation, immediate bool) (*BulkResult, error)
	ConfirmPublished(ctx context.Context, userID, postID int64) (*models.Post, error)
	ConfirmDue(ctx context.Context, before time.Time, limit int) ([]*ItemResult, error)
}

type ItemResult struct {
	Index int                 `json:"index"`
	Post  *models.Post        `json:"post,omitempty"`
	Error *OrchestrationError `json:"error,omitempty"`
}

type BulkResult struct {
	BatchID   string        `json:"batch_id"`
	Items     []*ItemResult `json:"items"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

type OrchestratorOptions struct {
	ProviderTimeout time.Duration
	Concurrency     int
	Now             func() time.Time
}

type orchestrator struct {
	posts       repository.PostRepository
	accounts    repository.SocialAccountRepository
	events      repository.PostEventRepository
	providers   ProviderConfigService
	creator     PostCreator
	locker      lock.Locker
	timeout     time.Duration
	concurrency int
	now         func() time.Time
}

func NewOrchestrator(
	posts repository.PostRepository,
	accounts repository.SocialAccountRepository,
	events repository.PostEventRepository,
	providers ProviderConfigService,
	creator PostCreator,
	locker lock.Locker,
	opts OrchestratorOptions) Orchestrator {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = provider.DefaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &orchestrator{
		posts:       posts,
		accounts:    accounts,
		events:      events,
		providers:   providers,
		creator:     creator,
		locker:      locker,
		timeout:     opts.ProviderTimeout,
		concurrency: opts.Concurrency,
		now:         opts.Now,
	}
}

func (o *orchestrator) Schedule(ctx context.Context, userID, postID int64) (*models.Post, error) {
	return o.submit(ctx, userID, postID, false)
}

func (o *orchestrator) PublishNow(ctx context.Context, userID, postID int64) (*models.Post, error) {
	return o.submit(ctx, userID, postID, true)
}

func lockKey(postID int64) string {
	return "post:" + strconv.FormatInt(postID, 10)
}

// acquire takes the per-post lock and loads the post owned by userID.
func (o *orchestrator) acquire(ctx context.Context, userID, postID int64) (*models.Post, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, classify(err)
	}
	release, err := o.locker.Lock(ctx, lockKey(postID))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, nil, stateConflict("post %d is being modified by another operation", postID)
		}
		return nil, nil, classify(err)
	}

	post, err := o.posts.GetByID(ctx, postID)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("loading post %d: %w", postID, err)
	}
	if post == nil || post.UserID != userID {
		release()
		return nil, nil, notFound("post %d not found", postID)
	}
	return post, release, nil
}

// providerContext detaches the call from caller cancellation so an in-flight
// provider request is always awaited, and bounds it by the provider timeout.
func (o *orchestrator) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
}

func (o *orchestrator) submit(ctx context.Context, userID, postID int64, immediate bool) (*models.Post, error) {
	post, release, err := o.acquire(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	defer release()

	switch post.Status {
	case models.PostStatusDraft, models.PostStatusFailed:
	case models.PostStatusScheduled:
		if !immediate {
			return post, nil
		}
		return post, stateConflict("post %d is already scheduled, cancel it before publishing now", post.ID)
	case models.PostStatusPublished:
		if immediate {
			return post, nil
		}
		return post, stateConflict("post %d is already published", post.ID)
	default:
		return post, stateConflict("post %d cannot be submitted from status %s", post.ID, post.Status)
	}

	attemptKind, target := models.EventScheduleAttempt, models.PostStatusScheduled
	if immediate {
		attemptKind, target = models.EventPublishAttempt, models.PostStatusPublished
	}
	o.appendEvent(ctx, post, attemptKind, "")
	log := slog.With("post_id", post.ID, "user_id", userID, "target", target)

	accounts, err := o.accounts.ListByPostID(ctx, post.ID)
	if err != nil {
		return o.fail(ctx, post, fmt.Errorf("loading accounts: %w", err))
	}
	if verr := checkAccounts(accounts); verr != nil {
		return o.fail(ctx, post, verr)
	}
	post.Accounts = accounts

	adapter, err := o.providers.Resolve(ctx, userID, post.ProviderType)
	if err != nil {
		return o.fail(ctx, post, err)
	}

	if err := ctx.Err(); err != nil {
		log.Info("caller gave up before provider call", "error", err)
		return post, classify(err)
	}

	// Accounts that still hold a live remote post from an earlier attempt are
	// not submitted again.
	pending := unsubmitted(post, accounts)
	profileIDs := distinctProfiles(pending)
	var scheduledAt *time.Time
	if !immediate {
		t := post.ScheduledTime.UTC()
		scheduledAt = &t
	}

	result := &provider.PostResult{Profiles: map[string]string{}}
	if len(profileIDs) > 0 {
		callCtx, cancel := o.providerContext(ctx)
		result, err = adapter.CreatePost(callCtx, profileIDs, post.Content, postMedia(post), scheduledAt, provider.PostOptions{
			Shorten: true,
			Title:   post.Title,
		})
		cancel()
		if err != nil {
			log.Info("provider rejected post", "provider", adapter.Name(), "error", err)
			return o.fail(ctx, post, err)
		}
	}

	if missing := missingProfiles(profileIDs, result); len(missing) > 0 {
		o.rollback(ctx, adapter, post, result)
		return o.fail(ctx, post, &OrchestrationError{
			Kind:    KindProviderValidation,
			Message: fmt.Sprintf("%s accepted %d of %d profiles, rejected: %s", adapter.Name(), len(profileIDs)-len(missing), len(profileIDs), strings.Join(missing, ", ")),
		})
	}

	prev := post.Status
	next := post.Clone()
	next.Status = target
	next.ErrorMessage = ""
	next.ProviderType = adapter.Name()
	next.ProviderPostIDs = make(map[string]string, len(accounts))
	for _, a := range accounts {
		key := strconv.FormatInt(a.ID, 10)
		if id := post.ProviderPostIDs[key]; id != "" {
			next.ProviderPostIDs[key] = id
			continue
		}
		next.ProviderPostIDs[key] = result.Profiles[a.ProviderProfileID]
	}
	if immediate {
		now := o.now()
		next.PublishedTime = &now
	} else {
		next.PublishedTime = nil
	}

	// The remote post exists now, so the local write must not be abandoned.
	if err := o.posts.UpdateState(context.WithoutCancel(ctx), next, prev); err != nil {
		log.Error("remote post created but local state not saved", "provider", adapter.Name(), "remote_ids", next.ProviderPostIDs, "error", err)
		return post, classify(err)
	}
	next.Accounts = accounts
	metrics.IncTransition(prev, target)

	doneKind := models.EventScheduled
	if immediate {
		doneKind = models.EventPublished
	}
	o.appendEvent(ctx, next, doneKind, fmt.Sprintf("%s ids %s", adapter.Name(), strings.Join(next.ProviderPostIDList(), ",")))
	log.Info("post submitted", "provider", adapter.Name(), "status", target)
	return next, nil
}

// checkAccounts requires at least one active account linked to a provider profile.
func checkAccounts(accounts []*models.SocialAccount) *OrchestrationError {
	if len(accounts) == 0 {
		return validationError("post has no associated social accounts")
	}
	var bad []string
	for _, a := range accounts {
		if a.ProviderProfileID == "" || a.Status != models.AccountStatusActive {
			bad = append(bad, fmt.Sprintf("%d (%s)", a.ID, a.Platform))
		}
	}
	if len(bad) > 0 {
		return validationError("accounts without an active provider profile: %s", strings.Join(bad, ", "))
	}
	return nil
}

// unsubmitted returns the accounts that have no remote post recorded on post.
func unsubmitted(post *models.Post, accounts []*models.SocialAccount) []*models.SocialAccount {
	pending := make([]*models.SocialAccount, 0, len(accounts))
	for _, a := range accounts {
		if post.ProviderPostIDs[strconv.FormatInt(a.ID, 10)] == "" {
			pending = append(pending, a)
		}
	}
	return pending
}

func distinctProfiles(accounts []*models.SocialAccount) []string {
	seen := make(map[string]struct{}, len(accounts))
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if _, ok := seen[a.ProviderProfileID]; ok {
			continue
		}
		seen[a.ProviderProfileID] = struct{}{}
		ids = append(ids, a.ProviderProfileID)
	}
	return ids
}

func missingProfiles(requested []string, result *provider.PostResult) []string {
	var missing []string
	for _, id := range requested {
		if result.Profiles[id] == "" {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}

var videoExtensions = map[string]struct{}{".mp4": {}, ".mov": {}, ".m4v": {}, ".webm": {}, ".avi": {}}

// postMedia splits the post's media urls into photos and videos by post type
// and file extension.
func postMedia(p *models.Post) *provider.Media {
	m := &provider.Media{Link: p.Link}
	for _, u := range p.MediaURLs {
		ext := strings.ToLower(path.Ext(strings.SplitN(u, "?", 2)[0]))
		if _, ok := videoExtensions[ext]; ok || p.PostType == models.PostTypeVideo {
			m.Videos = append(m.Videos, u)
			continue
		}
		m.Photos = append(m.Photos, u)
	}
	if m.Empty() {
		return nil
	}
	return m
}

// rollback removes remote posts created by a partially accepted submission.
func (o *orchestrator) rollback(ctx context.Context, adapter provider.Adapter, post *models.Post, result *provider.PostResult) {
	ids := make([]string, 0, len(result.Profiles))
	for _, id := range result.Profiles {
		ids = append(ids, id)
	}
	o.removeRemote(ctx, adapter, post, ids)
}

// removeRemote deletes the given remote posts once each and records a
// rollback event. It returns the ids the provider confirmed as deleted.
func (o *orchestrator) removeRemote(ctx context.Context, adapter provider.Adapter, post *models.Post, ids []string) map[string]struct{} {
	seen := map[string]struct{}{}
	removed := map[string]struct{}{}
	var done, failed []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		callCtx, cancel := o.providerContext(ctx)
		_, err := adapter.DeletePost(callCtx, id)
		cancel()
		if err != nil {
			slog.Warn("rollback of remote post failed", "post_id", post.ID, "provider", adapter.Name(), "remote_id", id, "error", err)
			failed = append(failed, id)
			continue
		}
		removed[id] = struct{}{}
		done = append(done, id)
	}
	sort.Strings(done)
	sort.Strings(failed)
	o.appendEvent(ctx, post, models.EventRemoteRollback, fmt.Sprintf("removed [%s] failed [%s]", strings.Join(done, ","), strings.Join(failed, ",")))
	return removed
}

// fail records a failed attempt. Provider ids are written as they are on post,
// which callers keep limited to remote posts that are still live. The failed
// post is returned along with the typed error.
func (o *orchestrator) fail(ctx context.Context, post *models.Post, cause error) (*models.Post, error) {
	oe := classify(cause)

	prev := post.Status
	next := post.Clone()
	next.Status = models.PostStatusFailed
	next.PublishedTime = nil
	next.ErrorMessage = errorDetail(oe)

	if err := o.posts.UpdateState(context.WithoutCancel(ctx), next, prev); err != nil {
		slog.Error("could not record failed attempt", "post_id", post.ID, "cause", oe.Error(), "error", err)
		return post, oe
	}
	metrics.IncTransition(prev, models.PostStatusFailed)
	o.appendEvent(ctx, next, models.EventFailed, oe.Kind+": "+next.ErrorMessage)
	slog.Info("post attempt failed", "post_id", post.ID, "kind", oe.Kind, "error", next.ErrorMessage)
	return next, oe
}

func errorDetail(oe *OrchestrationError) string {
	var pe *provider.ProviderError
	if errors.As(oe, &pe) {
		return pe.Error()
	}
	return oe.Message
}

func (o *orchestrator) Cancel(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, release, err := o.acquire(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	defer release()

	if post.Status != models.PostStatusScheduled {
		return post, stateConflict("only scheduled posts can be cancelled, post %d is %s", post.ID, post.Status)
	}
	remoteIDs := post.ProviderPostIDList()
	if len(remoteIDs) == 0 {
		return post, validationError("post %d has no provider post id to cancel", post.ID)
	}

	o.appendEvent(ctx, post, models.EventCancelAttempt, strings.Join(remoteIDs, ","))
	log := slog.With("post_id", post.ID, "user_id", userID)

	adapter, err := o.providers.Resolve(ctx, userID, post.ProviderType)
	if err != nil {
		oe := classify(err)
		o.appendEvent(ctx, post, models.EventCancelFailed, oe.Message)
		return post, oe
	}
	if err := ctx.Err(); err != nil {
		return post, classify(err)
	}

	deleted := make(map[string]struct{}, len(remoteIDs))
	var firstErr error
	for _, id := range remoteIDs {
		callCtx, cancel := o.providerContext(ctx)
		_, err := adapter.DeletePost(callCtx, id)
		cancel()
		if err != nil {
			log.Info("provider refused delete", "provider", adapter.Name(), "remote_id", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted[id] = struct{}{}
	}

	next := post.Clone()
	for accountID, id := range next.ProviderPostIDs {
		if _, ok := deleted[id]; ok {
			delete(next.ProviderPostIDs, accountID)
		}
	}

	if firstErr != nil {
		oe := classify(firstErr)
		if len(deleted) > 0 {
			if err := o.posts.UpdateState(context.WithoutCancel(ctx), next, models.PostStatusScheduled); err != nil {
				log.Error("could not record partially cancelled post", "error", err)
				return post, oe
			}
			post = next
		}
		o.appendEvent(ctx, post, models.EventCancelFailed, errorDetail(oe))
		return post, oe
	}

	next.Status = models.PostStatusCancelled
	if err := o.posts.UpdateState(context.WithoutCancel(ctx), next, models.PostStatusScheduled); err != nil {
		log.Error("remote posts deleted but local state not saved", "error", err)
		return post, classify(err)
	}
	metrics.IncTransition(models.PostStatusScheduled, models.PostStatusCancelled)
	o.appendEvent(ctx, next, models.EventCancelled, "")
	log.Info("post cancelled", "provider", adapter.Name())
	return next, nil
}

// Update edits a post's content. Drafts and failed posts change locally. A
// scheduled post is edited with the provider first and the local row is only
// written once every remote post accepted the change.
func (o *orchestrator) Update(ctx context.Context, userID, postID int64, edit *transfer.PostEdit) (*models.Post, error) {
	if edit.Empty() {
		return nil, validationError("post %d: nothing to update", postID)
	}
	if edit.Content != nil && strings.TrimSpace(*edit.Content) == "" {
		return nil, validationError("content must not be empty")
	}

	post, release, err := o.acquire(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	defer release()

	switch post.Status {
	case models.PostStatusDraft, models.PostStatusFailed, models.PostStatusScheduled:
	default:
		return post, stateConflict("post %d cannot be edited from status %s", post.ID, post.Status)
	}

	next := post.Clone()
	applyEdit(next, edit)
	log := slog.With("post_id", post.ID, "user_id", userID, "status", post.Status)

	if post.Status == models.PostStatusScheduled {
		if !next.ScheduledTime.After(o.now()) {
			return post, validationError("scheduled_time must be in the future for a scheduled post")
		}
		remoteIDs := post.ProviderPostIDList()
		if len(remoteIDs) == 0 {
			return post, validationError("post %d has no provider post id to update", post.ID)
		}
		adapter, err := o.providers.Resolve(ctx, userID, post.ProviderType)
		if err != nil {
			return post, classify(err)
		}
		if err := ctx.Err(); err != nil {
			return post, classify(err)
		}

		fields := remoteEdit(next, edit)
		var updated []string
		for _, id := range remoteIDs {
			callCtx, cancel := o.providerContext(ctx)
			_, err := adapter.UpdatePost(callCtx, id, fields)
			cancel()
			if err != nil {
				oe := classify(err)
				log.Info("provider refused edit", "provider", adapter.Name(), "remote_id", id, "error", err)
				o.appendEvent(ctx, post, models.EventEditFailed, fmt.Sprintf("updated [%s] refused %s: %s", strings.Join(updated, ","), id, errorDetail(oe)))
				return post, oe
			}
			updated = append(updated, id)
		}
	}

	if err := o.posts.UpdateContent(context.WithoutCancel(ctx), next, post.Status); err != nil {
		log.Error("could not save edited post", "error", err)
		return post, classify(err)
	}
	o.appendEvent(ctx, next, models.EventEdited, editedFields(edit))
	log.Info("post edited")
	return next, nil
}

func applyEdit(p *models.Post, edit *transfer.PostEdit) {
	if edit.Title != nil {
		p.Title = *edit.Title
	}
	if edit.Content != nil {
		p.Content = *edit.Content
	}
	if edit.MediaURLs != nil {
		p.MediaURLs = append([]string(nil), edit.MediaURLs...)
	}
	if edit.Link != nil {
		p.Link = *edit.Link
	}
	if edit.ScheduledTime != nil {
		p.ScheduledTime = edit.ScheduledTime.UTC()
	}
	if edit.MediaURLs != nil || edit.Link != nil {
		p.PostType = ""
		p.PostType = inferPostType(p)
	}
}

// remoteEdit carries only the changed fields to the provider.
func remoteEdit(p *models.Post, edit *transfer.PostEdit) provider.PostUpdate {
	var fields provider.PostUpdate
	if edit.Content != nil {
		text := p.Content
		fields.Text = &text
	}
	if edit.MediaURLs != nil || edit.Link != nil {
		fields.Media = postMedia(p)
	}
	if edit.ScheduledTime != nil {
		t := p.ScheduledTime
		fields.ScheduledAt = &t
	}
	return fields
}

func editedFields(edit *transfer.PostEdit) string {
	var names []string
	if edit.Title != nil {
		names = append(names, "title")
	}
	if edit.Content != nil {
		names = append(names, "content")
	}
	if edit.MediaURLs != nil {
		names = append(names, "media_urls")
	}
	if edit.Link != nil {
		names = append(names, "link")
	}
	if edit.ScheduledTime != nil {
		names = append(names, "scheduled_time")
	}
	return strings.Join(names, ",")
}

func (o *orchestrator) BulkSchedule(ctx context.Context, userID int64, items []*transfer.PostCreation, immediate bool) (*BulkResult, error) {
	if len(items) == 0 {
		return nil, validationError("no posts supplied")
	}

	result := &BulkResult{
		BatchID: uuid.NewString(),
		Items:   make([]*ItemResult, len(items)),
	}
	log := slog.With("batch_id", result.BatchID, "user_id", userID)

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, pc := range items {
		g.Go(func() error {
			item := &ItemResult{Index: i}
			result.Items[i] = item

			post, err := o.creator.Create(ctx, userID, pc)
			if err != nil {
				item.Error = classify(err)
				return nil
			}
			item.Post = post
			if !immediate {
				return nil
			}

			scheduled, err := o.Schedule(ctx, userID, post.ID)
			if scheduled != nil {
				item.Post = scheduled
			}
			if err != nil {
				item.Error = classify(err)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, item := range result.Items {
		if item.Error != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}
	log.Info("bulk schedule finished", "items", len(items), "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

// ConfirmPublished moves a scheduled post to published once the provider
// reports every remote post as sent. It is a no-op for posts that are not
// scheduled or whose provider cannot report status.
func (o *orchestrator) ConfirmPublished(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, release, err := o.acquire(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	defer release()

	remoteIDs := post.ProviderPostIDList()
	if post.Status != models.PostStatusScheduled || len(remoteIDs) == 0 {
		return post, nil
	}

	adapter, err := o.providers.Resolve(ctx, userID, post.ProviderType)
	if err != nil {
		return post, classify(err)
	}
	checker, ok := adapter.(provider.StatusChecker)
	if !ok {
		return post, nil
	}

	statuses := make(map[string]string, len(remoteIDs))
	var failedIDs []string
	published := 0
	for _, id := range remoteIDs {
		callCtx, cancel := o.providerContext(ctx)
		status, err := checker.GetPostStatus(callCtx, id)
		cancel()
		if err != nil {
			return post, classify(err)
		}
		statuses[id] = status.Status
		switch status.Status {
		case provider.ResultFailed:
			failedIDs = append(failedIDs, id)
		case provider.ResultPublished:
			published++
		}
	}
	if len(failedIDs) > 0 {
		return o.failConfirmation(ctx, adapter, post, statuses, failedIDs)
	}
	if published < len(remoteIDs) {
		return post, nil
	}

	next := post.Clone()
	now := o.now()
	next.Status = models.PostStatusPublished
	next.PublishedTime = &now
	if err := o.posts.UpdateState(context.WithoutCancel(ctx), next, models.PostStatusScheduled); err != nil {
		return post, classify(err)
	}
	metrics.IncTransition(models.PostStatusScheduled, models.PostStatusPublished)
	o.appendEvent(ctx, next, models.EventConfirmed, strings.Join(remoteIDs, ","))
	slog.Info("post publish confirmed", "post_id", post.ID, "provider", adapter.Name())
	return next, nil
}

// failConfirmation fails a scheduled post after the provider reported some of
// its remote posts as failed. Remote posts that have not gone out are deleted
// so a retry cannot publish them twice. Published remote posts stay recorded
// and a retry only resubmits the accounts without one.
func (o *orchestrator) failConfirmation(ctx context.Context, adapter provider.Adapter, post *models.Post, statuses map[string]string, failedIDs []string) (*models.Post, error) {
	var unsent []string
	for id, status := range statuses {
		if status != provider.ResultPublished {
			unsent = append(unsent, id)
		}
	}
	sort.Strings(unsent)
	removed := o.removeRemote(ctx, adapter, post, unsent)

	next := post.Clone()
	for accountID, id := range next.ProviderPostIDs {
		_, gone := removed[id]
		if gone || statuses[id] == provider.ResultFailed {
			delete(next.ProviderPostIDs, accountID)
		}
	}

	sort.Strings(failedIDs)
	return o.fail(ctx, next, &OrchestrationError{
		Kind:    KindProviderValidation,
		Message: fmt.Sprintf("%s reported remote posts %s as failed", adapter.Name(), strings.Join(failedIDs, ", ")),
	})
}

// ConfirmDue runs ConfirmPublished for scheduled posts whose time has passed.
func (o *orchestrator) ConfirmDue(ctx context.Context, before time.Time, limit int) ([]*ItemResult, error) {
	due, err := o.posts.ListDue(ctx, before, limit)
	if err != nil {
		return nil, fmt.Errorf("listing due posts: %w", err)
	}

	results := make([]*ItemResult, len(due))
	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, p := range due {
		g.Go(func() error {
			item := &ItemResult{Index: i, Post: p}
			results[i] = item
			post, err := o.ConfirmPublished(ctx, p.UserID, p.ID)
			if post != nil {
				item.Post = post
			}
			if err != nil {
				item.Error = classify(err)
				slog.Info("confirmation failed", "post_id", p.ID, "kind", item.Error.Kind, "error", item.Error.Message)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (o *orchestrator) appendEvent(ctx context.Context, post *models.Post, kind, detail string) {
	ev := &models.PostEvent{PostID: post.ID, UserID: post.UserID, Kind: kind, Detail: detail}
	if _, err := o.events.Create(context.WithoutCancel(ctx), ev); err != nil {
		slog.Warn("could not append post event", "post_id", post.ID, "kind", kind, "error", err)
	}
}
