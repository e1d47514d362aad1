// Package gochannel provides the in-process event transport used by single
// node deployments and tests.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// predictionBuffer bounds the prediction events queued per subscriber before
// publishers start to wait.
const predictionBuffer = 1000

// CreateChannel returns the in-process transport for prediction events.
// Publishing never waits for the audit consumer and consumed events are
// dropped.
func CreateChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	return pair(gochannel.Config{OutputChannelBuffer: predictionBuffer}, logger)
}

// CreateTestChannel returns a transport whose Publish returns only once the
// event was handled, so assertions can follow a publish directly.
func CreateTestChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	return pair(gochannel.Config{
		OutputChannelBuffer:            10,
		Persistent:                     true,
		BlockPublishUntilSubscriberAck: true,
	}, logger)
}

// pair returns one GoChannel as both publisher and subscriber.
func pair(config gochannel.Config, logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	pubSub := gochannel.NewGoChannel(config, logger)

	return pubSub, pubSub, nil
}
