package models

import "cadview/db"

func Init() {
	db.Instance.AutoMigrate(&User{})
	db.Instance.AutoMigrate(&Model{})
	db.Instance.AutoMigrate(&ViewEvent{})
	db.Instance.AutoMigrate(&GalleryImage{})
}
