package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	r "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/recupa-ai/internal/entity"
	"github.com/xavierca1/recupa-ai/internal/infra/http/middleware"
)

const (
	DelayedKey = "recovery:delayed"
	DeadKey    = "recovery:dead"
)

// RedisQueue é o backend alternativo: um ZSET com score = horário de execução (ms).
type RedisQueue struct {
	rdb *r.Client
}

func NewRedisQueue(rdb *r.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job entity.RecoveryJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %w", err)
	}
	if err := q.rdb.ZAdd(ctx, DelayedKey, r.Z{Score: float64(job.RunAt.UnixMilli()), Member: body}).Err(); err != nil {
		return fmt.Errorf("falha ao agendar no redis: %w", err)
	}
	return nil
}

// ClaimDue devolve até batch membros vencidos. Cada membro só é devolvido se o
// ZREM deste processo o removeu, então dois pollers nunca pegam o mesmo job.
func (q *RedisQueue) ClaimDue(ctx context.Context, now time.Time, batch int64) ([]string, error) {
	members, err := q.rdb.ZRangeByScore(ctx, DelayedKey, &r.ZRangeBy{
		Min: "-inf", Max: strconv.FormatInt(now.UnixMilli(), 10), Offset: 0, Count: batch,
	}).Result()
	if err != nil {
		return nil, err
	}

	claimed := make([]string, 0, len(members))
	for _, m := range members {
		n, err := q.rdb.ZRem(ctx, DelayedKey, m).Result()
		if err != nil {
			return claimed, err
		}
		if n == 1 {
			claimed = append(claimed, m)
		}
	}
	return claimed, nil
}

func (q *RedisQueue) DeadLetter(ctx context.Context, member string) error {
	return q.rdb.LPush(ctx, DeadKey, member).Err()
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}

// RedisWorker faz polling do ZSET e executa os jobs vencidos num pool limitado.
type RedisWorker struct {
	Queue        *RedisQueue
	Runner       JobRunner
	Logger       *zap.Logger
	Concurrency  int
	PollInterval time.Duration
	BatchSize    int64
	now          func() time.Time
}

func NewRedisWorker(q *RedisQueue, runner JobRunner, concurrency int, logger *zap.Logger) *RedisWorker {
	return &RedisWorker{
		Queue:        q,
		Runner:       runner,
		Logger:       logger,
		Concurrency:  concurrency,
		PollInterval: time.Second,
		BatchSize:    100,
		now:          time.Now,
	}
}

func (w *RedisWorker) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.Concurrency)

	w.Logger.Info("worker redis aguardando", zap.String("key", DelayedKey), zap.Int("concurrency", w.Concurrency))

	tick := time.NewTicker(w.PollInterval)
	defer tick.Stop()

	for {
		select {
		case <-gctx.Done():
			g.Wait()
			return ctx.Err()
		case <-tick.C:
			w.poll(gctx, g)
		}
	}
}

func (w *RedisWorker) poll(ctx context.Context, g *errgroup.Group) {
	members, err := w.Queue.ClaimDue(ctx, w.now(), w.BatchSize)
	if err != nil {
		w.Logger.Error("falha ao buscar jobs vencidos", zap.Error(err))
	}
	for _, m := range members {
		member := m
		// g.Go bloqueia quando o pool está cheio
		g.Go(func() error {
			w.handle(ctx, member)
			return nil
		})
	}
}

func (w *RedisWorker) handle(ctx context.Context, member string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), JobTimeout)
	defer cancel()

	var job entity.RecoveryJob
	if err := json.Unmarshal([]byte(member), &job); err != nil || job.LeadID == "" {
		w.Logger.Error("payload inválido, enviando para dead letter", zap.String("body", member), zap.Error(err))
		w.deadLetter(ctx, member)
		return
	}

	result := w.Runner.Run(ctx, job)
	middleware.RecordJobOutcome("redis", string(result.Outcome))

	if result.Err != nil {
		w.deadLetter(ctx, member)
	}
}

func (w *RedisWorker) deadLetter(ctx context.Context, member string) {
	if err := w.Queue.DeadLetter(ctx, member); err != nil {
		w.Logger.Error("falha ao gravar dead letter", zap.Error(err))
	}
}
