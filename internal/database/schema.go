package database

var schema = []string{
	`
CREATE TABLE IF NOT EXISTS users (
    id CHAR(36) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(255) NOT NULL,
    credit_balance INT NOT NULL DEFAULT 5,
    plan VARCHAR(32) NOT NULL DEFAULT 'Free',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`,
	`
CREATE TABLE IF NOT EXISTS thumbnails (
    id CHAR(36) PRIMARY KEY,
    user_id CHAR(36) NOT NULL,
    title VARCHAR(255) NOT NULL,
    user_prompt TEXT,
    prompt_used TEXT,
    style VARCHAR(32) NOT NULL,
    aspect_ratio VARCHAR(8) NOT NULL,
    color_scheme VARCHAR(32),
    text_overlay TINYINT(1) NOT NULL DEFAULT 0,
    is_generating TINYINT(1) NOT NULL DEFAULT 1,
    image_url VARCHAR(1024),
    image_key VARCHAR(512),
    error_message TEXT,
    created_at TIMESTAMP(3) DEFAULT CURRENT_TIMESTAMP(3),
    updated_at TIMESTAMP(3) DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
    INDEX idx_thumbnails_user_created (user_id, created_at),
    FOREIGN KEY (user_id) REFERENCES users(id)
)`,
	`
CREATE TABLE IF NOT EXISTS payments (
    id CHAR(36) PRIMARY KEY,
    user_id CHAR(36) NOT NULL,
    plan VARCHAR(32) NOT NULL,
    provider VARCHAR(64) NOT NULL,
    provider_order_id VARCHAR(128) NOT NULL,
    provider_payment_id VARCHAR(128),
    currency VARCHAR(8) NOT NULL,
    amount INT NOT NULL,
    status VARCHAR(16) NOT NULL,
    raw_payload TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uniq_provider_order (provider, provider_order_id),
    FOREIGN KEY (user_id) REFERENCES users(id)
)`,
}
