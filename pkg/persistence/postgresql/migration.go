package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE chat_flows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				type VARCHAR(20) NOT NULL CHECK (type IN ('CHATFLOW', 'AR', 'UPDL')),
				flow_data JSONB NOT NULL,
				api_key_hash VARCHAR(255),
				override_config JSONB NOT NULL DEFAULT '{}',
				deployed BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_chat_flows_created_at ON chat_flows(created_at);
			CREATE INDEX idx_chat_flows_deleted_at ON chat_flows(deleted_at);

			CREATE TABLE variables (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL UNIQUE,
				value TEXT NOT NULL DEFAULT '',
				type VARCHAR(20) NOT NULL DEFAULT 'static',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);
		`,
		2: `
			CREATE TABLE chat_messages (
				id UUID PRIMARY KEY,
				chat_flow_id UUID NOT NULL REFERENCES chat_flows(id) ON DELETE CASCADE,
				chat_id VARCHAR(255) NOT NULL,
				session_id VARCHAR(255),
				role VARCHAR(20) NOT NULL CHECK (role IN ('userMessage', 'apiMessage')),
				content TEXT NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_chat_messages_chat ON chat_messages(chat_flow_id, chat_id, created_at);
		`,
	}
}
