package models

// Schema holds the DDL for the application database. Statements are safe to
// run on every startup; the views are rebuilt each time so changes to them
// take effect without a migration.
var Schema = []string{
	`create table if not exists channels (
		id integer primary key autoincrement,
		created_at text not null,
		external_id text not null unique,
		title text not null default '',
		description text not null default '',
		custom_url text not null default '',
		published_at text,
		thumbnail_url text not null default '',
		uploads_playlist_id text not null default '',
		subscriber_count integer not null default 0,
		video_count integer not null default 0,
		view_count integer not null default 0,
		last_fetched_at text
	)`,
	`create table if not exists videos (
		id integer primary key autoincrement,
		created_at text not null,
		external_id text not null unique,
		channel_id integer references channels (id),
		channel_external_id text not null default '',
		title text not null default '',
		description text not null default '',
		published_at text,
		thumbnail_url text not null default '',
		view_count integer not null default 0,
		like_count integer not null default 0,
		comment_count integer not null default 0,
		next_stat_fetch_at text,
		stat_fetch_frequency_hours integer not null default 0,
		last_stat_logged_at text
	)`,
	`create index if not exists videos_channel_id on videos (channel_id)`,
	`create index if not exists videos_next_stat_fetch_at on videos (next_stat_fetch_at)`,
	`create table if not exists channel_stats_logs (
		id integer primary key autoincrement,
		channel_id integer not null references channels (id),
		created_at text not null,
		subscriber_count integer not null default 0,
		video_count integer not null default 0,
		view_count integer not null default 0
	)`,
	`create index if not exists channel_stats_logs_channel_id on channel_stats_logs (channel_id, created_at)`,
	`create table if not exists video_stats_logs (
		id integer primary key autoincrement,
		video_id integer not null references videos (id),
		fetched_at text not null,
		view_count integer not null default 0,
		like_count integer not null default 0,
		comment_count integer not null default 0
	)`,
	`create index if not exists video_stats_logs_video_id on video_stats_logs (video_id, fetched_at)`,
	`create table if not exists jobs (
		id integer primary key autoincrement,
		created_at text not null,
		queue_name text not null,
		payload text not null default '',
		run_after text not null,
		failure_delay integer not null default 0,
		attempts_remaining integer not null default 0,
		reserved_at text,
		reserved_until text,
		finished_at text,
		error_messages text,
		output_messages text
	)`,
	`create index if not exists jobs_queue_name_run_after on jobs (queue_name, run_after)`,
	`drop view if exists channel_overview`,
	`create view channel_overview as
		select
			c.id as channel_id,
			c.created_at as channel_created_at,
			c.external_id as channel_external_id,
			c.title as channel_title,
			c.custom_url as channel_custom_url,
			c.published_at as channel_published_at,
			c.thumbnail_url as channel_thumbnail_url,
			c.subscriber_count as subscriber_count,
			c.video_count as video_count,
			c.view_count as view_count,
			c.last_fetched_at as channel_last_fetched_at,
			(select count(*) from videos v where v.channel_id = c.id) as tracked_video_count
		from channels c`,
	`drop view if exists video_overview`,
	`create view video_overview as
		select
			v.id as video_id,
			v.created_at as video_created_at,
			v.external_id as video_external_id,
			v.title as video_title,
			v.published_at as video_published_at,
			v.thumbnail_url as video_thumbnail_url,
			v.channel_id as channel_id,
			v.channel_external_id as channel_external_id,
			coalesce(c.title, '') as channel_title,
			v.view_count as view_count,
			v.like_count as like_count,
			v.comment_count as comment_count,
			v.next_stat_fetch_at as next_stat_fetch_at,
			v.stat_fetch_frequency_hours as stat_fetch_frequency_hours,
			v.last_stat_logged_at as last_stat_logged_at
		from videos v
		left join channels c on c.id = v.channel_id`,
}
