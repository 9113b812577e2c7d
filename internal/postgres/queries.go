package postgres

const (
	queryTableExists = `SELECT to_regclass('public.' || $1) IS NOT NULL;`

	queryGetIdentity = `
		SELECT id, username, avatar
		FROM users
		WHERE id = $1;
	`

	queryCreateRoom = `
		INSERT INTO rooms (name, description, is_private, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at;
	`
	queryGetRoom = `
		SELECT r.id, r.name, r.description, r.is_private, r.created_by, r.created_at, r.updated_at,
		       u.id, u.username, u.avatar
		FROM rooms AS r
		JOIN users AS u ON u.id = r.created_by
		WHERE r.id = $1;
	`
	queryRoomExists = `SELECT EXISTS(SELECT 1 FROM rooms WHERE id = $1);`
	queryListRooms  = `
		SELECT r.id, r.name, r.description, r.is_private, r.created_by, r.created_at, r.updated_at,
		       u.id, u.username, u.avatar,
		       EXISTS(SELECT 1 FROM user_rooms AS ur WHERE ur.room_id = r.id AND ur.user_id = $1) AS is_joined
		FROM rooms AS r
		JOIN users AS u ON u.id = r.created_by
		ORDER BY r.created_at ASC, r.id ASC;
	`
	queryDeleteRoom = `DELETE FROM rooms WHERE id = $1;`

	queryJoinRoom = `
		INSERT INTO user_rooms (user_id, room_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, room_id) DO NOTHING
		RETURNING joined_at;
	`
	queryLeaveRoom      = `DELETE FROM user_rooms WHERE user_id = $1 AND room_id = $2;`
	queryIsRoomMember   = `SELECT EXISTS(SELECT 1 FROM user_rooms WHERE user_id = $1 AND room_id = $2);`
	queryCreateMessage  = `
		INSERT INTO messages (content, type, is_ai, user_id, room_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at;
	`
	queryGetMessageWithAuthor = `
		SELECT m.id, m.content, m.type, m.is_ai, m.user_id, m.room_id, m.created_at, m.updated_at,
		       u.id, u.username, u.avatar
		FROM messages AS m
		JOIN users AS u ON u.id = m.user_id
		WHERE m.id = $1;
	`
	// newest-first keyset: (created_at, id) < cursor
	queryListMessages = `
		SELECT m.id, m.content, m.type, m.is_ai, m.user_id, m.room_id, m.created_at, m.updated_at,
		       u.id, u.username, u.avatar
		FROM messages AS m
		JOIN users AS u ON u.id = m.user_id
		WHERE m.room_id = $1
		  AND ($2::bool IS FALSE OR m.is_ai)
		  AND (
		    $3::timestamptz IS NULL
		    OR m.created_at < $3
		    OR (m.created_at = $3 AND m.id < $4::bigint)
		  )
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $5;
	`
)
