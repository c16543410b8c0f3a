package schema

// CatalogVersion identifies the revision of the expected schema below. Bump it
// whenever a table, column or index is added.
const CatalogVersion = "7"

func pk() Column {
	return Column{Name: "id", Type: TInteger, PrimaryKey: true}
}

func ref(name, table string, notNull bool) Column {
	return Column{Name: name, Type: TInteger, NotNull: notNull, References: table}
}

func str(name string, n int) Column {
	return Column{Name: name, Type: TString(n)}
}

func reqStr(name string, n int) Column {
	return Column{Name: name, Type: TString(n), NotNull: true}
}

func text(name string) Column {
	return Column{Name: name, Type: TText}
}

func flag(name string, def bool) Column {
	return Column{Name: name, Type: TBoolean, Default: Literal(def)}
}

func counter(name string) Column {
	return Column{Name: name, Type: TInteger, Default: Literal(0)}
}

func stamp(name string) Column {
	return Column{Name: name, Type: TDateTime, Default: Now()}
}

func ix(table, column string) Index {
	return Index{Name: "ix_" + table + "_" + column, Table: table, Columns: []string{column}}
}

// CannaSpot returns the expected schema of the CannaSpot application. A new
// value is built on every call so callers may not mutate a shared catalog.
func CannaSpot() *Catalog {
	return &Catalog{
		Version: CatalogVersion,
		Tables: []Table{
			{Name: "site_setting", Columns: []Column{
				pk(),
				{Name: "site_name", Type: TString(120), Default: Literal("CannaSpot")},
				{Name: "maintenance_mode", Type: TString(10), Default: Literal("off")},
				text("custom_message"),
				stamp("updated_at"),
			}},
			{Name: "user", Columns: []Column{
				pk(),
				{Name: "uname", Type: TString(80), NotNull: true, Unique: true},
				{Name: "email", Type: TString(120), NotNull: true, Unique: true},
				str("dname", 120),
				reqStr("pw_hash", 256),
				str("avatar", 255),
				flag("admin", false),
				text("p_html"),
				{Name: "status", Type: TString(20), Default: Literal("online")},
				stamp("seen"),
				stamp("created"),
			}},
			{Name: "server", Columns: []Column{
				pk(),
				reqStr("name", 120),
				{Name: "slug", Type: TString(140), NotNull: true, Unique: true},
				ref("owner", "user", false),
				str("icon", 255),
				stamp("created"),
			}},
			{Name: "channel", Columns: []Column{
				pk(),
				ref("server", "server", false),
				str("name", 120),
				flag("voice", false),
				str("cat", 100),
				counter("pos"),
				stamp("created"),
			}},
			{Name: "membership", Columns: []Column{
				pk(),
				ref("user", "user", false),
				ref("server", "server", false),
			}},
			{Name: "role", Columns: []Column{
				pk(),
				ref("server_id", "server", true),
				reqStr("name", 100),
				{Name: "color", Type: TString(7), Default: Literal("#99AAB5")},
				counter("position"),
				flag("is_admin", false),
				flag("can_manage_channels", false),
				flag("can_manage_roles", false),
				flag("can_kick_members", false),
				flag("can_ban_members", false),
				flag("can_send_messages", true),
				flag("can_manage_messages", false),
				flag("can_mention_everyone", false),
				stamp("created_at"),
			}},
			{Name: "role_membership", Columns: []Column{
				pk(),
				ref("user_id", "user", true),
				ref("role_id", "role", true),
				stamp("assigned_at"),
			}},
			{Name: "video", Columns: []Column{
				pk(),
				reqStr("title", 200),
				reqStr("filename", 255),
				str("thumbnail", 255),
				text("description"),
				ref("uploader_id", "user", false),
				counter("view_count"),
				stamp("created_at"),
				flag("is_live", false),
			}},
			{Name: "message", Columns: []Column{
				pk(),
				ref("server_id", "server", false),
				ref("channel_id", "channel", false),
				ref("user_id", "user", false),
				text("content"),
				stamp("created_at"),
			}},
			{Name: "sponsor", Columns: []Column{
				pk(),
				reqStr("name", 120),
				str("url", 255),
				str("logo", 255),
				flag("active", true),
			}},
			{Name: "activity", Columns: []Column{
				pk(),
				str("event", 140),
				text("data"),
				stamp("created_at"),
			}},
			{Name: "playlist", Columns: []Column{
				pk(),
				reqStr("name", 200),
				ref("user_id", "user", false),
				stamp("created_at"),
			}},
			{Name: "playlist_video", Columns: []Column{
				pk(),
				ref("playlist_id", "playlist", false),
				ref("video_id", "video", false),
				{Name: "position", Type: TInteger},
				stamp("added_at"),
			}},
			{Name: "subscription", Columns: []Column{
				pk(),
				ref("subscriber_id", "user", false),
				ref("subscribed_to_id", "user", false),
				stamp("created_at"),
			}},
			{Name: "video_like", Columns: []Column{
				pk(),
				ref("user_id", "user", false),
				ref("video_id", "video", false),
				stamp("created_at"),
			}},
			{Name: "watch_later", Columns: []Column{
				pk(),
				ref("user_id", "user", false),
				ref("video_id", "video", false),
				stamp("added_at"),
			}},
			{Name: "short", Columns: []Column{
				pk(),
				reqStr("title", 200),
				reqStr("filename", 255),
				str("thumbnail", 255),
				ref("uploader_id", "user", false),
				stamp("created_at"),
			}},
			{Name: "notification", Columns: []Column{
				pk(),
				ref("user_id", "user", true),
				reqStr("message", 255),
				str("link", 255),
				flag("is_read", false),
				stamp("created_at"),
			}},
			{Name: "voice_participant", Columns: []Column{
				pk(),
				ref("user_id", "user", true),
				ref("channel_id", "channel", true),
				stamp("joined_at"),
				flag("is_muted", false),
			}},
			{Name: "friendship", Columns: []Column{
				pk(),
				ref("user_id", "user", true),
				ref("friend_id", "user", true),
				{Name: "status", Type: TString(20), Default: Literal("pending")},
				stamp("requested_at"),
				{Name: "accepted_at", Type: TDateTime},
			}},
			{Name: "direct_message", Columns: []Column{
				pk(),
				ref("sender_id", "user", true),
				ref("recipient_id", "user", true),
				{Name: "content", Type: TText, NotNull: true},
				flag("is_read", false),
				stamp("created_at"),
			}},
			{
				Name: "rtc_signal",
				Columns: []Column{
					pk(),
					reqStr("room", 120),
					ref("sender_id", "user", true),
					ref("target_id", "user", false),
					reqStr("kind", 20),
					{Name: "payload", Type: TText, NotNull: true},
					stamp("created_at"),
				},
				Indexes: []Index{ix("rtc_signal", "room"), ix("rtc_signal", "created_at")},
			},
			{
				Name: "rtc_participant",
				Columns: []Column{
					pk(),
					reqStr("room", 120),
					ref("user_id", "user", true),
					stamp("joined_at"),
					stamp("last_seen"),
				},
				Indexes: []Index{ix("rtc_participant", "room"), ix("rtc_participant", "last_seen")},
			},
			{
				Name: "video_comment",
				Columns: []Column{
					pk(),
					ref("video_id", "video", true),
					ref("user_id", "user", true),
					{Name: "content", Type: TText, NotNull: true},
					stamp("created_at"),
				},
				Indexes: []Index{ix("video_comment", "created_at")},
			},
			{Name: "custom_emoji", Columns: []Column{
				pk(),
				{Name: "category", Type: TString(50), NotNull: true, Default: Literal("custom")},
				str("emoji_char", 10),
				str("image_path", 255),
				str("label", 100),
				counter("sort_order"),
				flag("is_active", true),
				stamp("created_at"),
			}},
			{Name: "advertisement", Columns: []Column{
				pk(),
				reqStr("title", 200),
				text("content"),
				str("image", 255),
				str("link", 500),
				{Name: "placement", Type: TString(50), Default: Literal("sidebar")},
				flag("is_active", true),
				counter("click_count"),
				counter("view_count"),
				stamp("created_at"),
				stamp("updated_at"),
			}},
			{Name: "music_bot", Columns: []Column{
				pk(),
				ref("channel_id", "channel", true),
				flag("is_active", true),
				flag("is_playing", false),
				flag("is_paused", false),
				str("current_song", 500),
				str("current_song_title", 200),
				{Name: "loop_mode", Type: TString(20), Default: Literal("off")},
				flag("is_shuffled", false),
				stamp("joined_at"),
				stamp("last_activity"),
			}},
			{Name: "music_queue", Columns: []Column{
				pk(),
				ref("channel_id", "channel", true),
				ref("added_by", "user", true),
				reqStr("song_url", 500),
				str("song_title", 200),
				counter("position"),
				flag("is_played", false),
				stamp("added_at"),
			}},
			{Name: "email_verification", Columns: []Column{
				pk(),
				{Name: "user_id", Type: TInteger, NotNull: true, Unique: true, References: "user"},
				{Name: "verified_at", Type: TDateTime},
				stamp("created_at"),
			}},
			{Name: "post", Columns: []Column{
				pk(),
				ref("user_id", "user", true),
				reqStr("title", 200),
				{Name: "content_raw", Type: TText, NotNull: true},
				{Name: "content_html", Type: TText, NotNull: true},
				stamp("created_at"),
				stamp("updated_at"),
			}},
		},
	}
}
