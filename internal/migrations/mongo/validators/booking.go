package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"customer_phone",
			"service_name",
			"total_price",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"booking_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"customer_phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9][0-9]{6,14}$`,
			},

			"service_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"total_price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"status": bson.M{
				"enum": []string{
					"pending",
					"accepted",
					"arrived",
					"in_progress",
					"payment_pending",
					"completed",
					"cancelled",
				},
			},

			"notified_provider_ids": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "string",
				},
			},

			"provider_id": bson.M{
				"bsonType":  "string",
				"maxLength": 64,
			},

			"coordinates": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"latitude": bson.M{
						"bsonType": []string{"double", "int"},
						"minimum":  -90,
						"maximum":  90,
					},
					"longitude": bson.M{
						"bsonType": []string{"double", "int"},
						"minimum":  -180,
						"maximum":  180,
					},
				},
			},

			"payment": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"mode": bson.M{
						"enum": []string{"", "cash", "qr", "online"},
					},
					"status": bson.M{
						"enum": []string{"", "unpaid", "pending", "paid"},
					},
				},
			},

			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
