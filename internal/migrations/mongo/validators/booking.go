package validators

import "go.mongodb.org/mongo-driver/bson"

const (
	uuidPattern  = `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`
	datePattern  = `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`
	clockPattern = `^([01][0-9]|2[0-3]):[0-5][0-9]$|^24:00$`
)

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"room_id",
			"user_id",
			"date",
			"start_time",
			"end_time",
			"title",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
				"pattern":  uuidPattern,
			},

			"room_id": bson.M{
				"bsonType": "string",
				"pattern":  uuidPattern,
			},

			"user_id": bson.M{
				"bsonType": "string",
				"pattern":  uuidPattern,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  datePattern,
			},

			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  clockPattern,
			},

			"end_time": bson.M{
				"bsonType": "string",
				"pattern":  clockPattern,
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"participants": bson.M{
				"bsonType": []string{"array", "null"},
				"maxItems": 500,
				"items": bson.M{
					"bsonType":  "string",
					"maxLength": 100,
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
