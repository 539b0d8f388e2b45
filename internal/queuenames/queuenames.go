package queuenames

const (
	ChannelSyncVideos = "channel_sync_videos"
)

var Priority = []string{
	ChannelSyncVideos,
}
