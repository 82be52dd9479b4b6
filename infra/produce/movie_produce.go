package produce

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	MovieExchange = "movie.exchange"

	// MovieUploadedQueue carries commit notifications; the consumer
	// verifies both assets exist for the committed record.
	MovieUploadedQueue      = "movie.uploaded"
	MovieUploadedRoutingKey = "movie.uploaded"

	// ReconcileUploadQueue carries failed-upload notifications; the
	// consumer sweeps orphaned objects under the session's prefix.
	ReconcileUploadQueue      = "movie.reconcile"
	ReconcileUploadRoutingKey = "movie.reconcile"
)

// MovieUploadedMessage is published after the movie record commits.
type MovieUploadedMessage struct {
	MovieID       string `json:"movie_id"`
	Title         string `json:"title"`
	FileSize      int64  `json:"file_size"`
	FilePath      string `json:"file_path"`
	ThumbnailPath string `json:"thumbnail_path"`
	UploadedBy    string `json:"uploaded_by"`
	Timestamp     int64  `json:"timestamp"`
}

// ReconcileUploadMessage is published when an upload fails after its
// provisional session was created, so partial artifacts can be swept.
type ReconcileUploadMessage struct {
	UploadID      string `json:"upload_id"`
	StoragePrefix string `json:"storage_prefix"`
	Reason        string `json:"reason"`
	Timestamp     int64  `json:"timestamp"`
}

// MovieEventService handles publishing movie lifecycle events
type MovieEventService struct {
	channel *amqp.Channel
}

func InitMovieEventService(channel *amqp.Channel) *MovieEventService {
	service := &MovieEventService{
		channel: channel,
	}

	err := channel.ExchangeDeclare(
		MovieExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare Movie exchange: " + err.Error())
	}

	for queue, key := range map[string]string{
		MovieUploadedQueue:   MovieUploadedRoutingKey,
		ReconcileUploadQueue: ReconcileUploadRoutingKey,
	} {
		_, err = channel.QueueDeclare(
			queue,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			panic("Failed to declare queue " + queue + ": " + err.Error())
		}

		err = channel.QueueBind(
			queue,
			key,
			MovieExchange,
			false,
			nil,
		)
		if err != nil {
			panic("Failed to bind queue " + queue + ": " + err.Error())
		}
	}

	return service
}

// PublishMovieUploaded publishes a commit notification
func (s *MovieEventService) PublishMovieUploaded(ctx context.Context, msg MovieUploadedMessage) error {
	msg.Timestamp = time.Now().Unix()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		MovieExchange,
		MovieUploadedRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}

// PublishReconcileUpload publishes a sweep request for a failed upload
func (s *MovieEventService) PublishReconcileUpload(ctx context.Context, msg ReconcileUploadMessage) error {
	msg.Timestamp = time.Now().Unix()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		MovieExchange,
		ReconcileUploadRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}
