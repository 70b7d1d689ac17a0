package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nmehta6/aqi-server/internal/aqi"
	"github.com/nmehta6/aqi-server/internal/database"
	"github.com/nmehta6/aqi-server/internal/protocol"
)

// readingSource is the consumer surface the writer depends on.
type readingSource interface {
	Consume(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msg kafka.Message) error
}

// BatchWriter consumes served readings from Kafka, derives their AQI with
// the same conversion engine the API server uses inline, and batch-writes
// them to the database.
type BatchWriter struct {
	consumer      readingSource
	db            *database.DB
	batchSize     int
	flushInterval time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter(consumer readingSource, db *database.DB, batchSize int, flushInterval time.Duration) *BatchWriter {
	return &BatchWriter{
		consumer:      consumer,
		db:            db,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		stopCh:        make(chan struct{}),
	}
}

// Start begins consuming and writing to database
func (bw *BatchWriter) Start(ctx context.Context) error {
	bw.wg.Add(1)
	go bw.run(ctx)
	return nil
}

// Stop stops the batch writer gracefully
func (bw *BatchWriter) Stop() {
	close(bw.stopCh)
	bw.wg.Wait()
}

func (bw *BatchWriter) run(ctx context.Context) {
	defer bw.wg.Done()

	var batch []kafka.Message
	ticker := time.NewTicker(bw.flushInterval)
	defer ticker.Stop()

	msgChan := make(chan kafka.Message, 10)
	go func() {
		for {
			msg, err := bw.consumer.Consume(ctx)
			if err != nil {
				// Once the writer is stopped or the context cancelled, a
				// consume error means the reader is closed; exit instead of
				// spinning on it.
				select {
				case <-bw.stopCh:
					return
				case <-ctx.Done():
					return
				default:
				}
				fmt.Printf("Consumer error: %v\n", err)
				continue
			}

			select {
			case msgChan <- msg:
			case <-bw.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-bw.stopCh:
			// Flush remaining batch before stopping
			if len(batch) > 0 {
				bw.flush(ctx, batch)
			}
			return

		case <-ticker.C:
			if len(batch) > 0 {
				fmt.Printf("Flush interval reached (%d messages), flushing...\n", len(batch))
				bw.flush(ctx, batch)
				batch = nil
			}

		case msg := <-msgChan:
			batch = append(batch, msg)

			if len(batch) >= bw.batchSize {
				fmt.Printf("Batch full (%d messages), flushing...\n", len(batch))
				bw.flush(ctx, batch)
				batch = nil
			}
		}
	}
}

func (bw *BatchWriter) flush(ctx context.Context, batch []kafka.Message) {
	if len(batch) == 0 {
		return
	}

	successCount := 0
	for _, msg := range batch {
		if err := bw.processMessage(msg); err != nil {
			fmt.Printf("Failed to process message: %v\n", err)
			continue
		}
		successCount++

		// Commit offset after successful processing
		if err := bw.consumer.Commit(ctx, msg); err != nil {
			fmt.Printf("Failed to commit offset: %v\n", err)
		}
	}

	fmt.Printf("Flushed batch of %d readings to database\n", successCount)
}

func (bw *BatchWriter) processMessage(msg kafka.Message) error {
	reading, err := protocol.DecodeReadingMessage(msg.Value)
	if err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}

	result, err := aqi.Compute(reading.PM25)
	if err != nil {
		return fmt.Errorf("failed to derive AQI: %w", err)
	}

	city := &database.City{
		Name:    reading.CityName,
		Country: reading.Country,
		State:   reading.State,
		Lat:     reading.Lat,
		Lon:     reading.Lon,
	}
	if err := bw.db.UpsertCity(city); err != nil {
		return fmt.Errorf("failed to upsert city: %w", err)
	}

	row := &database.AirReading{
		QueryID:          reading.QueryID,
		CityID:           city.ID,
		MeasuredAt:       reading.MeasuredAt,
		PM25:             reading.PM25,
		PM10:             &reading.PM10,
		NO2:              &reading.NO2,
		SO2:              &reading.SO2,
		O3:               &reading.O3,
		CO:               &reading.CO,
		AQI:              result.AQI,
		Category:         string(result.Category),
		CigarettesPerDay: result.CigarettesPerDay,
		ReceivedAt:       reading.ServedAt,
	}

	if err := bw.db.InsertAirReading(row); err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}

	return nil
}
