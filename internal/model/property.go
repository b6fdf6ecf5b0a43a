package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Known values for Property.Tipo. Field names stay in Portuguese to
// match the spreadsheet headers used for import and export.
const (
	TipoCasa        = "Casa"
	TipoApartamento = "Apartamento"
	TipoKitnet      = "Kitnet"
	TipoLoja        = "Loja"
	TipoSala        = "Sala"
	TipoTerreno     = "Terreno"
)

// ValidTipo reports whether tipo is one of the known unit categories.
func ValidTipo(tipo string) bool {
	switch tipo {
	case TipoCasa, TipoApartamento, TipoKitnet, TipoLoja, TipoSala, TipoTerreno:
		return true
	}
	return false
}

// Property is a document in the `imobs` collection. Copasa and Cemig
// hold the water and power utility account references. The triple
// (Tipo, Rua, Numero) is the natural key used by the bulk import to
// match spreadsheet rows against stored records.
type Property struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Tipo        string             `bson:"tipo" json:"tipo"`
	Rua         string             `bson:"rua" json:"rua"`
	Numero      string             `bson:"numero" json:"numero"`
	Complemento string             `bson:"complemento" json:"complemento"`
	CEP         string             `bson:"cep" json:"cep"`
	Cidade      string             `bson:"cidade" json:"cidade"`
	UF          string             `bson:"uf" json:"uf"`
	Obs         string             `bson:"obs" json:"obs"`
	Copasa      string             `bson:"copasa" json:"copasa"`
	Cemig       string             `bson:"cemig" json:"cemig"`
	IDUser      string             `bson:"idUser,omitempty" json:"idUser,omitempty"`
	IsDisabled  bool               `bson:"isDisabled" json:"isDisabled"`
}
