// Package rspubsub bridges Go channels and replayable streams.
//
// [RunChannelToStream] publishes every value received on a channel
// to a stream that any number of readers can replay.
// [RunReaderToChannel] does the reverse for a single reader,
// for consumers that prefer to select on a channel.
package rspubsub
