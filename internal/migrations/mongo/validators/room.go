package validators

import "go.mongodb.org/mongo-driver/bson"

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "capacity", "price", "created_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
				"pattern":  uuidPattern,
			},
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},
			"capacity": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  500,
			},
			"price": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
			},
			"amenities": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
