package listingRepository

const (
	queryCreateListing = `
INSERT INTO menu_items (id, user_id, image, audio, eng, esp, price_raw, price_amount, price_currency, transcript, created_at, updated_at)
VALUES (:id, :user_id, :image, :audio, :eng, :esp, :price_raw, :price_amount, :price_currency, :transcript, :created_at, :updated_at)`

	queryListListings = `
SELECT id, user_id, image, audio, eng, esp, price_raw, price_amount, price_currency, transcript, created_at, updated_at
FROM menu_items
ORDER BY created_at DESC`

	queryGetListingByID = `
SELECT id, user_id, image, audio, eng, esp, price_raw, price_amount, price_currency, transcript, created_at, updated_at
FROM menu_items
    WHERE id = :id`

	queryUpdateEnglish = `
UPDATE menu_items
SET eng = eng || CAST(:patch AS jsonb),
    price_raw = COALESCE(:price_raw, price_raw),
    price_amount = COALESCE(:price_amount, price_amount),
    price_currency = COALESCE(:price_currency, price_currency),
    updated_at = :updated_at
    WHERE id = :id`

	queryUpdateSpanish = `
UPDATE menu_items
SET esp = esp || CAST(:patch AS jsonb),
    price_raw = COALESCE(:price_raw, price_raw),
    price_amount = COALESCE(:price_amount, price_amount),
    price_currency = COALESCE(:price_currency, price_currency),
    updated_at = :updated_at
    WHERE id = :id`

	queryDeleteListing = `
DELETE FROM menu_items
    WHERE id = :id`

	queryAppendErrorLog = `
INSERT INTO errors_log (id, username, stage, error, image_url, audio_url, created_at)
VALUES (:id, :username, :stage, :error, :image_url, :audio_url, :created_at)`
)
