package catalog

// defaultEntries 預設核准食材及每公斤/每公升價格（₹）
var defaultEntries = []Entry{
	// Dry fruits and seeds
	{Name: "Almonds (Whole)", Price: 940},
	{Name: "Sunflower Seed (Whole)", Price: 130},
	{Name: "Pumpkin Seed (Whole)", Price: 530},
	{Name: "Black Raisins (Whole)", Price: 195},
	{Name: "Cashew (Whole)", Price: 1000},
	{Name: "Dates (Whole)", Price: 250},
	{Name: "Raisins (Whole)", Price: 195},
	{Name: "Walnut (Whole)", Price: 1370},
	// Flours and millets
	{Name: "Amaranth Flour Raw", Price: 145},
	{Name: "Bajra Flour Raw", Price: 90},
	{Name: "Bajra Pearl Millet", Price: 65},
	{Name: "Barnyard Millet Flour Raw", Price: 92},
	{Name: "Barnyard Millet Kuthiraivali", Price: 75},
	{Name: "Besan Flour Raw", Price: 125},
	{Name: "Foxtail Millet Flour", Price: 95},
	{Name: "Foxtail Millet Thinai", Price: 85},
	{Name: "Jowar Flour Raw", Price: 78},
	{Name: "Jowar Sorghum", Price: 70},
	{Name: "Khapli Wheat Flour", Price: 88},
	{Name: "Kodo Millet", Price: 78},
	{Name: "Kodo Millet Flour Raw", Price: 90},
	{Name: "Little Millet Flour", Price: 92},
	{Name: "Little Millet Samai", Price: 85},
	{Name: "Maize Flour", Price: 80},
	{Name: "Ragi Flour", Price: 92},
	{Name: "Ragi Millet", Price: 78},
	{Name: "Samai Little Millet", Price: 85},
	{Name: "Thinai Foxtail Millet", Price: 85},
	{Name: "Wheat Flour Raw", Price: 85},
	// Ghee and cold pressed oils
	{Name: "A2 Ghee", Price: 1044},
	{Name: "Cold Pressed Castor Oil", Price: 260},
	{Name: "Cold Pressed Coconut Oil", Price: 340},
	{Name: "Cold Pressed Groundnut Oil", Price: 259},
	{Name: "Cold Pressed Mustard Oil", Price: 331},
	{Name: "Cold Pressed Sesame Oil Black", Price: 340},
	{Name: "Cold Pressed Sesame Oil White", Price: 310},
	{Name: "Cold Pressed Sunflower Oil", Price: 245},
	// Pulses and dals
	{Name: "Black Urad Dal (Whole)", Price: 162},
	{Name: "Black Urad Dal Split", Price: 165},
	{Name: "Chana Bengal Gram", Price: 120},
	{Name: "Chana Dal Split", Price: 115},
	{Name: "Green Gram (Whole)", Price: 142},
	{Name: "Green Gram Dal Split", Price: 130},
	{Name: "Horsegram Kulthi", Price: 95},
	{Name: "Kabuli Chana", Price: 215},
	{Name: "Lobia Black Eyed Peas", Price: 150},
	{Name: "Masoor Dal (Whole)", Price: 105},
	{Name: "Masoor Dal Split", Price: 106},
	{Name: "Moong Dal (Whole)", Price: 142},
	{Name: "Moong Dal Split", Price: 130},
	{Name: "Rajma Red Kidney Beans", Price: 140},
	{Name: "Split Urad Dal Split With Skin", Price: 165},
	{Name: "Split Urad Dal Without Skin", Price: 170},
	{Name: "Toor Dal Arhar Split", Price: 155},
	{Name: "Urad Dal Black Gram Split", Price: 165},
	{Name: "White Urad Dal (Whole)", Price: 168},
	{Name: "Whole Moong", Price: 142},
	{Name: "Yellow Moong Dal Split", Price: 132},
	// Rice and rice products
	{Name: "Adai Mix", Price: 110},
	{Name: "Aval (Flattened Rice)", Price: 85},
	{Name: "Basmati Rice", Price: 108},
	{Name: "Black Rice", Price: 190},
	{Name: "Bpt Rice", Price: 68},
	{Name: "Broken Rice", Price: 50},
	{Name: "Brown Rice", Price: 80},
	{Name: "Hand Pounded Rice", Price: 96},
	{Name: "Idli Rice", Price: 85},
	{Name: "Karungkuruvai Rice", Price: 115},
	{Name: "Kitchili Samba Boiled Rice", Price: 92},
	{Name: "Kitchili Samba Rice", Price: 88},
	{Name: "Mapillai Samba Rice", Price: 105},
	{Name: "Matta Rice", Price: 82},
	{Name: "Parboiled Rice", Price: 75},
	{Name: "Ponni Rice Boiled", Price: 78},
	{Name: "Ponni Rice Raw", Price: 80},
	{Name: "Poongar Rice", Price: 98},
	{Name: "Red Poha", Price: 88},
	{Name: "Red Rice", Price: 95},
	{Name: "Rice Flour", Price: 75},
	{Name: "Seeraga Samba Rice", Price: 110},
	// Oil seeds
	{Name: "Chia Seed (Whole)", Price: 280},
	{Name: "Flax Seed (Whole)", Price: 110},
	{Name: "Groundnuts", Price: 95},
	{Name: "Sesame Seed Black (Whole)", Price: 135},
	{Name: "Sesame Seed White (Whole)", Price: 125},
	// Spices and masalas
	{Name: "Ajwain (Powder)", Price: 265},
	{Name: "Ajwain (Whole)", Price: 255},
	{Name: "Bay Leaf", Price: 110},
	{Name: "Biryani Masala", Price: 1950},
	{Name: "Black Cumin Kala Jeera", Price: 450},
	{Name: "Black Pepper (Powder)", Price: 980},
	{Name: "Black Pepper (Whole)", Price: 950},
	{Name: "Cardamom (Powder)", Price: 2400},
	{Name: "Cardamom (Whole)", Price: 1950},
	{Name: "Chaat Masala", Price: 340},
	{Name: "Cinnamon (Powder)", Price: 460},
	{Name: "Cinnamon (Whole)", Price: 410},
	{Name: "Clove (Powder)", Price: 1300},
	{Name: "Clove (Whole)", Price: 1180},
	{Name: "Coriander (Powder)", Price: 290},
	{Name: "Coriander (Whole)", Price: 240},
	{Name: "Cumin (Powder)", Price: 385},
	{Name: "Cumin (Whole)", Price: 365},
	{Name: "Dry Red Chilli", Price: 320},
	{Name: "Fennel (Powder)", Price: 310},
	{Name: "Fennel (Whole)", Price: 290},
	{Name: "Fenugreek (Powder)", Price: 100},
	{Name: "Fenugreek (Whole)", Price: 90},
	{Name: "Garam Masala", Price: 340},
	{Name: "Hing Asafoetida", Price: 935},
	{Name: "Mustard (Powder)", Price: 130},
	{Name: "Mustard (Whole)", Price: 120},
	{Name: "Rasam (Powder)", Price: 310},
	{Name: "Star Anise", Price: 420},
	{Name: "Turmeric", Price: 210},
	{Name: "Whole Red Chillies", Price: 320},
	// Sweeteners
	{Name: "Brown Sugar", Price: 85},
	{Name: "Coconut Sugar", Price: 290},
	{Name: "Honey", Price: 390},
	{Name: "Jaggery (Powder)", Price: 88},
	{Name: "Jaggery (Solid)", Price: 82},
	{Name: "Palm Jaggery", Price: 180},
	{Name: "Stevia Leaf (Powder)", Price: 650},
	// Tea, coffee and blends
	{Name: "CTC Tea", Price: 315},
	{Name: "Green Tea Leaf", Price: 770},
	{Name: "Organic Coffee Arabica", Price: 620},
	{Name: "Organic Coffee Robusta", Price: 560},
	{Name: "Sambar Powder", Price: 165},
	// 免費或不計價項目
	{Name: "Garlic", Price: 0},
	{Name: "Curry Leaves", Price: 0},
	{Name: "Coriander Leaves", Price: 0},
	{Name: "Salt", Price: 0},
	{Name: "Water", Price: 0},
}
