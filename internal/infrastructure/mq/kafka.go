package mq

import (
	"log"

	"github.com/IBM/sarama"

	"trxmining/internal/config"
)

var Producer sarama.SyncProducer

func InitKafka() {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(config.GlobalConfig.Kafka.Brokers, cfg)
	if err != nil {
		log.Fatalf("[Kafka] failed to create producer: %v", err)
	}

	Producer = producer
	log.Println("[Kafka] producer ready")
}

// SendMessage publishes one message and waits for broker acknowledgement.
func SendMessage(topic, key, payload string) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(payload),
	}
	partition, offset, err := Producer.SendMessage(msg)
	if err != nil {
		return err
	}
	log.Printf("[Kafka] sent topic=%s key=%s partition=%d offset=%d", topic, key, partition, offset)
	return nil
}

func Close() {
	if Producer != nil {
		if err := Producer.Close(); err != nil {
			log.Printf("[Kafka] close error: %v", err)
		}
	}
}
